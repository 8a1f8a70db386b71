package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/queue"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/storage"
)

type fakePrices struct {
	prices  map[string]decimal.Decimal
	rows    []repository.QuoteRow
	calls   int
	lastIDs []string
	err     error
}

func (f *fakePrices) PricesByIDs(_ context.Context, ids []string) (map[string]decimal.Decimal, error) {
	f.calls++
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]decimal.Decimal{}
	for _, id := range ids {
		if p, ok := f.prices[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakePrices) QuoteRows(_ context.Context, ids []string) ([]repository.QuoteRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []repository.QuoteRow
	for _, r := range f.rows {
		if want[r.MedicalTestID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeBookings keeps committed bookings in memory.  A failing Create or
// mutator leaves nothing behind, like a rolled back transaction.
type fakeBookings struct {
	mu        sync.Mutex
	bookings  map[string]model.Booking
	items     map[string]model.BookingLineItem
	createErr error
	updateErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: map[string]model.Booking{}, items: map[string]model.BookingLineItem{}}
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking, items []model.BookingLineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.bookings[b.ID] = *b
	for _, it := range items {
		f.items[it.ID] = it
	}
	return nil
}

func (f *fakeBookings) UpdateItemStatus(ctx context.Context, bookingID, itemID string, mutate repository.ItemMutator) (*model.BookingLineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[itemID]
	if !ok || it.BookingID != bookingID {
		return nil, repository.ErrNotFound
	}
	change, err := mutate(ctx, it)
	if err != nil {
		return nil, err
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	it.Status = change.Status
	if change.ReportLink != nil {
		it.ReportLink = change.ReportLink
	}
	f.items[itemID] = it
	return &it, nil
}

func (f *fakeBookings) itemsOf(bookingID string) []model.BookingLineItem {
	var out []model.BookingLineItem
	for _, it := range f.items {
		if it.BookingID == bookingID {
			out = append(out, it)
		}
	}
	return out
}

type fakeEvents struct {
	created []queue.BookingCreatedEvent
	changed []queue.ItemStatusChangedEvent
	err     error
}

func (f *fakeEvents) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	f.created = append(f.created, ev)
	return f.err
}

func (f *fakeEvents) PublishItemStatusChanged(_ context.Context, ev queue.ItemStatusChangedEvent) error {
	f.changed = append(f.changed, ev)
	return f.err
}

type fakeArtifacts struct {
	uploads int
	folder  string
	err     error
}

func (f *fakeArtifacts) Upload(_ context.Context, a storage.Artifact, folder string) (string, error) {
	f.uploads++
	f.folder = folder
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example/" + folder + "/" + a.Name, nil
}

type fakeOrders struct {
	orders   []repository.Order
	lastFind repository.OrderFilter
	err      error
}

func (f *fakeOrders) Find(_ context.Context, flt repository.OrderFilter) ([]repository.Order, error) {
	f.lastFind = flt
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*repository.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.orders {
		if f.orders[i].BookingID == id {
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) Count(context.Context, repository.OrderFilter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.orders), nil
}

var errStore = errors.New("deadlock found when trying to get lock")
