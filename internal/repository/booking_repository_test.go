package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labconnect/medtest-booking/internal/model"
)

func newMock(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func sampleBooking() (*model.Booking, []model.BookingLineItem) {
	addr := "addr-1"
	b := &model.Booking{
		ID:            "b-1",
		UserID:        "u-1",
		PatientID:     "p-1",
		AddressID:     &addr,
		ScheduledDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		PaymentMode:   "UPI",
	}
	items := []model.BookingLineItem{
		{ID: "i-1", BookingID: "b-1", MedicalTestID: "T1", Price: decimal.RequireFromString("500.00"), Status: model.InitialItemStatus},
		{ID: "i-2", BookingID: "b-1", MedicalTestID: "T2", Price: decimal.RequireFromString("750.50"), Status: model.InitialItemStatus},
	}
	return b, items
}

const bulkItemsInsert = "INSERT INTO test_booking_items (item_id, booking_id, line_no, medical_test_id, test_price, status) VALUES (?, ?, ?, ?, ?, ?), (?, ?, ?, ?, ?, ?)"

func TestBookingRepo_Create_Commits(t *testing.T) {
	repo, mock := newMock(t)
	b, items := sampleBooking()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO test_bookings")).
		WithArgs("b-1", "u-1", "p-1", "addr-1", b.ScheduledDate, "UPI", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(bulkItemsInsert)).
		WithArgs(
			"i-1", "b-1", 1, "T1", decimal.RequireFromString("500.00"), "sample collection due",
			"i-2", "b-1", 2, "T2", decimal.RequireFromString("750.50"), "sample collection due",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), b, items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Create_RollsBackWhenItemsFail(t *testing.T) {
	repo, mock := newMock(t)
	b, items := sampleBooking()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO test_bookings")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(bulkItemsInsert)).
		WillReturnError(errors.New("foreign key constraint fails"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), b, items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key constraint fails")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Create_RollsBackWhenHeaderFails(t *testing.T) {
	repo, mock := newMock(t)
	b, items := sampleBooking()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO test_bookings")).
		WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	require.Error(t, repo.Create(context.Background(), b, items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Create_RejectsEmptyItems(t *testing.T) {
	repo, mock := newMock(t)
	b, _ := sampleBooking()

	require.Error(t, repo.Create(context.Background(), b, nil))
	// nothing touched the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

var itemColumns = []string{"item_id", "booking_id", "medical_test_id", "test_price", "status", "report_link", "created_at", "updated_at"}

func itemRow(status string, link any) *sqlmock.Rows {
	ts := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(itemColumns).AddRow("i-1", "b-1", "T1", "300.00", status, link, ts, ts)
}

func TestBookingRepo_UpdateItemStatus_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("i-404", "b-1").
		WillReturnRows(sqlmock.NewRows(itemColumns))
	mock.ExpectRollback()

	called := false
	_, err := repo.UpdateItemStatus(context.Background(), "b-1", "i-404",
		func(context.Context, model.BookingLineItem) (ItemChange, error) {
			called = true
			return ItemChange{}, nil
		})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_UpdateItemStatus_MutatorErrorRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("i-1", "b-1").
		WillReturnRows(itemRow("sample collected", nil))
	mock.ExpectRollback()

	uploadErr := errors.New("upload failed")
	_, err := repo.UpdateItemStatus(context.Background(), "b-1", "i-1",
		func(context.Context, model.BookingLineItem) (ItemChange, error) {
			return ItemChange{}, uploadErr
		})
	assert.ErrorIs(t, err, uploadErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_UpdateItemStatus_WritesAndRereads(t *testing.T) {
	repo, mock := newMock(t)
	link := "https://files.example/reports/r.pdf"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("i-1", "b-1").
		WillReturnRows(itemRow("sample processing", nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE test_booking_items")).
		WithArgs("report generated", link, "i-1", "b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM test_booking_items")).
		WithArgs("i-1", "b-1").
		WillReturnRows(itemRow("report generated", link))

	var seen model.ItemStatus
	item, err := repo.UpdateItemStatus(context.Background(), "b-1", "i-1",
		func(_ context.Context, cur model.BookingLineItem) (ItemChange, error) {
			seen = cur.Status
			return ItemChange{Status: model.StatusReportReady, ReportLink: &link}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, seen)
	assert.Equal(t, model.StatusReportReady, item.Status)
	require.NotNil(t, item.ReportLink)
	assert.Equal(t, link, *item.ReportLink)
	assert.True(t, decimal.RequireFromString("300").Equal(item.Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}
