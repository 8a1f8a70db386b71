package service

import (
	"context"
	"errors"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page describes one page of a paginated listing.
type Page struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// NormalizePage clamps page and limit to usable values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// OrderService serves the aggregated booking views.  Reads never mutate.
type OrderService struct {
	store OrderStore
}

func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

// ListForUser returns the caller's bookings, newest first.  A non-empty
// status narrows the list to bookings with that status.
func (s *OrderService) ListForUser(ctx context.Context, userID, status string) ([]repository.Order, error) {
	orders, err := s.store.Find(ctx, repository.OrdersByUser(userID, status))
	if err != nil {
		return nil, apperr.Internal("Failed to fetch bookings", err)
	}
	return orders, nil
}

// GetForUser returns one of the caller's bookings.  A booking owned by
// someone else is reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, userID, bookingID string) (*repository.Order, error) {
	o, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("Booking not found", bookingID)
	}
	return o, nil
}

// Get returns any booking by id.
func (s *OrderService) Get(ctx context.Context, bookingID string) (*repository.Order, error) {
	o, err := s.store.Get(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("Booking not found", bookingID)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch booking", err)
	}
	return o, nil
}

// ListAll returns one page of every booking, newest first.
func (s *OrderService) ListAll(ctx context.Context, page, limit int) ([]repository.Order, Page, error) {
	page, limit = NormalizePage(page, limit)
	f := repository.AllOrders(limit, (page-1)*limit)
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, Page{}, apperr.Internal("Failed to fetch orders", err)
	}
	orders, err := s.store.Find(ctx, f)
	if err != nil {
		return nil, Page{}, apperr.Internal("Failed to fetch orders", err)
	}
	return orders, Page{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}
