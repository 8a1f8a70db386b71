package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/model"
)

func newBookingFixture(prices map[string]string) (*BookingService, *fakePrices, *fakeBookings, *fakeEvents) {
	src := &fakePrices{prices: map[string]decimal.Decimal{}}
	for id, p := range prices {
		src.prices[id] = decimal.RequireFromString(p)
	}
	store := newFakeBookings()
	events := &fakeEvents{}
	svc := NewBookingService(NewPricingResolver(src), store, events, zerolog.Nop())
	n := 0
	svc.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return svc, src, store, events
}

func input(ids ...string) CreateBookingInput {
	return CreateBookingInput{
		UserID:        "u-1",
		PatientID:     "p-1",
		ScheduledDate: time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		PaymentMode:   "UPI",
		TestIDs:       ids,
	}
}

func TestCreateBooking_SingleTest(t *testing.T) {
	svc, _, store, events := newBookingFixture(map[string]string{"T1": "300"})

	id, err := svc.CreateBooking(context.Background(), input("T1"))
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	items := store.itemsOf(id)
	require.Len(t, items, 1)
	assert.True(t, decimal.NewFromInt(300).Equal(items[0].Price))
	assert.Equal(t, model.StatusCollectionDue, items[0].Status)

	require.Len(t, events.created, 1)
	assert.Equal(t, id, events.created[0].BookingID)
	assert.Equal(t, "300.00", events.created[0].TotalAmount)
	assert.Equal(t, "2026-11-02", events.created[0].ScheduledDate)
}

func TestCreateBooking_EmptyItems(t *testing.T) {
	svc, src, store, _ := newBookingFixture(nil)

	_, err := svc.CreateBooking(context.Background(), input())
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, src.calls)
	assert.Empty(t, store.bookings)
}

func TestCreateBooking_UnknownTestWritesNothing(t *testing.T) {
	svc, src, store, events := newBookingFixture(map[string]string{"T1": "500"})

	_, err := svc.CreateBooking(context.Background(), input("T1", "T9", "T9"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "T9")

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, []string{"T9"}, ae.IDs)
	assert.Equal(t, 1, src.calls)
	assert.Empty(t, store.bookings)
	assert.Empty(t, store.items)
	assert.Empty(t, events.created)
}

func TestCreateBooking_SnapshotSurvivesPriceChange(t *testing.T) {
	svc, src, store, _ := newBookingFixture(map[string]string{"T1": "500.00", "T2": "750.50"})

	id, err := svc.CreateBooking(context.Background(), input("T1", "T2"))
	require.NoError(t, err)

	src.prices["T1"] = decimal.RequireFromString("999.99")
	for _, it := range store.itemsOf(id) {
		if it.MedicalTestID == "T1" {
			assert.Equal(t, "500", it.Price.String())
		}
	}
}

func TestCreateBooking_DuplicateIDsResolvedOnce(t *testing.T) {
	svc, src, store, _ := newBookingFixture(map[string]string{"T1": "100"})

	id, err := svc.CreateBooking(context.Background(), input("T1", "T1"))
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Len(t, store.itemsOf(id), 2)
}

func TestCreateBooking_StoreFailure(t *testing.T) {
	svc, _, store, events := newBookingFixture(map[string]string{"T1": "100"})
	store.createErr = errStore

	_, err := svc.CreateBooking(context.Background(), input("T1"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "deadlock")
	assert.Empty(t, events.created)
}

func TestCreateBooking_PublishFailureIgnored(t *testing.T) {
	svc, _, _, events := newBookingFixture(map[string]string{"T1": "100"})
	events.err = errStore

	id, err := svc.CreateBooking(context.Background(), input("T1"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
