package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/labconnect/medtest-booking/internal/database"
	"github.com/labconnect/medtest-booking/internal/model"
)

// BookingRepo writes bookings and their line items.  A booking and all of
// its items are created in one transaction; line items are later mutated
// only through UpdateItemStatus.  Reads for display live in OrderRepo.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ItemChange is the mutation UpdateItemStatus applies to a line item.
// A nil ReportLink leaves the stored link untouched.
type ItemChange struct {
	Status     model.ItemStatus
	ReportLink *string
}

// ItemMutator decides the change for a locked line item.  It runs inside
// the transaction after the row has been locked, so an error from it
// rolls everything back and the item keeps its stored state.
type ItemMutator func(ctx context.Context, current model.BookingLineItem) (ItemChange, error)

// Create inserts the booking header and every line item in a single
// transaction.  Line items go in with one multi-row INSERT and are numbered
// in argument order, since they all share one created_at.  IDs,
// price snapshots and the initial status must already be set on the
// arguments.  Any failure rolls the whole booking back.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking, items []model.BookingLineItem) error {
	if len(items) == 0 {
		return fmt.Errorf("booking %s has no line items", b.ID)
	}
	batch := database.NewBatchInsert("test_booking_items",
		"item_id", "booking_id", "line_no", "medical_test_id", "test_price", "status")
	for _, it := range items {
		if err := batch.Add(it.ID, b.ID, batch.Len()+1, it.MedicalTestID, it.Price, string(it.Status)); err != nil {
			return err
		}
	}
	itemsQ, itemsArgs, err := batch.Build()
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const insertBooking = `INSERT INTO test_bookings
	    (booking_id, user_id, patient_id, address_id, scheduled_date, payment_mode, transaction_id)
	    VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertBooking,
		b.ID, b.UserID, b.PatientID, nullable(b.AddressID),
		b.ScheduledDate, b.PaymentMode, nullable(b.TransactionID),
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if _, err := tx.ExecContext(ctx, itemsQ, itemsArgs...); err != nil {
		return fmt.Errorf("insert booking items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	committed = true
	return nil
}

// UpdateItemStatus locks the line item identified by (bookingID, itemID),
// hands it to mutate and writes the returned change in one UPDATE.  It
// returns ErrNotFound when the item does not exist or belongs to another
// booking.  The updated item is re-read after commit.
func (r *BookingRepo) UpdateItemStatus(ctx context.Context, bookingID, itemID string, mutate ItemMutator) (*model.BookingLineItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const lockQ = itemSelect + ` WHERE item_id = ? AND booking_id = ? FOR UPDATE`
	current, err := scanItem(tx.QueryRowContext(ctx, lockQ, itemID, bookingID))
	if err != nil {
		return nil, err
	}

	change, err := mutate(ctx, *current)
	if err != nil {
		return nil, err
	}

	const upd = `UPDATE test_booking_items
	             SET status = ?, report_link = COALESCE(?, report_link)
	             WHERE item_id = ? AND booking_id = ?`
	if _, err := tx.ExecContext(ctx, upd, string(change.Status), nullable(change.ReportLink), itemID, bookingID); err != nil {
		return nil, fmt.Errorf("update item status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit item status: %w", err)
	}
	committed = true

	return r.GetItem(ctx, bookingID, itemID)
}

// GetItem returns one line item of a booking, or ErrNotFound.
func (r *BookingRepo) GetItem(ctx context.Context, bookingID, itemID string) (*model.BookingLineItem, error) {
	const q = itemSelect + ` WHERE item_id = ? AND booking_id = ?`
	return scanItem(r.db.QueryRowContext(ctx, q, itemID, bookingID))
}

const itemSelect = `SELECT item_id, booking_id, medical_test_id, test_price, status, report_link, created_at, updated_at
                    FROM test_booking_items`

func scanItem(row *sql.Row) (*model.BookingLineItem, error) {
	var it model.BookingLineItem
	var status string
	var link sql.NullString
	err := row.Scan(&it.ID, &it.BookingID, &it.MedicalTestID, &it.Price, &status, &link, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	it.Status = model.ItemStatus(status)
	it.ReportLink = nullString(link)
	return &it, nil
}

// nullable turns an optional string into a driver value, NULL when unset.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
