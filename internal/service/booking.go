package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/queue"
)

// CreateBookingInput is a validated booking request.  UserID comes from the
// authenticated identity, never from the request body.
type CreateBookingInput struct {
	UserID        string
	PatientID     string
	AddressID     *string
	ScheduledDate time.Time
	PaymentMode   string
	TransactionID *string
	TestIDs       []string // one line item per entry
}

// BookingService creates bookings.
type BookingService struct {
	pricing *PricingResolver
	store   BookingStore
	events  EventPublisher
	log     zerolog.Logger

	newID func() string
	now   func() time.Time
}

func NewBookingService(pricing *PricingResolver, store BookingStore, events EventPublisher, log zerolog.Logger) *BookingService {
	return &BookingService{
		pricing: pricing,
		store:   store,
		events:  events,
		log:     log.With().Str("component", "booking").Logger(),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// CreateBooking resolves every requested test in one lookup, rejects the
// request when any test is unknown and otherwise writes the booking and
// all of its line items in one transaction.  Prices are snapshotted before
// the transaction opens.  It returns the new booking id.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (string, error) {
	if len(in.TestIDs) == 0 {
		return "", apperr.Validation("At least one test must be selected")
	}
	if in.UserID == "" || in.PatientID == "" {
		return "", apperr.Validation("user_id and patient_id are required")
	}
	for _, id := range in.TestIDs {
		if strings.TrimSpace(id) == "" {
			return "", apperr.Validation("medical_test_id must not be empty")
		}
	}

	res, err := s.pricing.Resolve(ctx, in.TestIDs)
	if err != nil {
		return "", err
	}
	if len(res.Missing) > 0 {
		return "", apperr.NotFound("Invalid test IDs: "+strings.Join(res.Missing, ", "), res.Missing...)
	}

	b := &model.Booking{
		ID:            s.newID(),
		UserID:        in.UserID,
		PatientID:     in.PatientID,
		AddressID:     in.AddressID,
		ScheduledDate: in.ScheduledDate,
		PaymentMode:   in.PaymentMode,
		TransactionID: in.TransactionID,
	}
	items := make([]model.BookingLineItem, 0, len(in.TestIDs))
	total := decimal.Zero
	for _, id := range in.TestIDs {
		price := res.Prices[id]
		items = append(items, model.BookingLineItem{
			ID:            s.newID(),
			BookingID:     b.ID,
			MedicalTestID: id,
			Price:         price,
			Status:        model.InitialItemStatus,
		})
		total = total.Add(price)
	}

	if err := s.store.Create(ctx, b, items); err != nil {
		s.log.Error().Err(err).Str("booking_id", b.ID).Str("user_id", b.UserID).Msg("create booking failed")
		return "", apperr.Internal("Failed to create booking", err)
	}
	s.log.Info().Str("booking_id", b.ID).Int("items", len(items)).Str("total", total.StringFixed(2)).Msg("booking created")

	pctx, cancel := detached(ctx)
	defer cancel()
	ev := queue.BookingCreatedEvent{
		BookingID:     b.ID,
		UserID:        b.UserID,
		PatientID:     b.PatientID,
		ScheduledDate: b.ScheduledDate.Format(time.DateOnly),
		PaymentMode:   b.PaymentMode,
		TestIDs:       append([]string(nil), in.TestIDs...),
		TotalAmount:   total.StringFixed(2),
		CreatedAt:     s.now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishBookingCreated(pctx, ev); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking.created not published")
	}
	return b.ID, nil
}
