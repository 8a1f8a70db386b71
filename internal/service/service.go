// Package service holds the booking core: price resolution, booking
// creation, order reads and the line item status pipeline.  Services
// depend on the narrow interfaces below and return *apperr.Error values.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/queue"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/storage"
)

// PriceSource is the read side of the offering catalog.
type PriceSource interface {
	PricesByIDs(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)
	QuoteRows(ctx context.Context, ids []string) ([]repository.QuoteRow, error)
}

// BookingStore persists bookings and mutates line items.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking, items []model.BookingLineItem) error
	UpdateItemStatus(ctx context.Context, bookingID, itemID string, mutate repository.ItemMutator) (*model.BookingLineItem, error)
}

// OrderStore reads aggregated orders.
type OrderStore interface {
	Find(ctx context.Context, f repository.OrderFilter) ([]repository.Order, error)
	Get(ctx context.Context, bookingID string) (*repository.Order, error)
	Count(ctx context.Context, f repository.OrderFilter) (int, error)
}

// EventPublisher sends booking events.  Publishing is best effort.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
	PublishItemStatusChanged(ctx context.Context, ev queue.ItemStatusChangedEvent) error
}

// ArtifactStore uploads report files.
type ArtifactStore = storage.ArtifactStore

// publishTimeout bounds a best effort event publish after commit.
const publishTimeout = 3 * time.Second

// detached returns a context that survives cancellation of ctx, bounded by
// publishTimeout.  Events are sent after the response data is committed.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
}
