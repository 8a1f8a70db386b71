package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labconnect/medtest-booking/internal/middleware"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/service"
)

// BookingCreator places bookings.
type BookingCreator interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (string, error)
}

// Quoter prices a prospective booking.
type Quoter interface {
	Quote(ctx context.Context, ids []string) (*service.Quote, error)
}

// OrderReader serves aggregated booking views.
type OrderReader interface {
	ListForUser(ctx context.Context, userID, status string) ([]repository.Order, error)
	GetForUser(ctx context.Context, userID, bookingID string) (*repository.Order, error)
	Get(ctx context.Context, bookingID string) (*repository.Order, error)
	ListAll(ctx context.Context, page, limit int) ([]repository.Order, service.Page, error)
}

// BookingHandler serves the USER booking routes.  The caller id always
// comes from the token, never from the body.
type BookingHandler struct {
	bookings BookingCreator
	quotes   Quoter
	orders   OrderReader
}

func NewBookingHandler(bookings BookingCreator, quotes Quoter, orders OrderReader) *BookingHandler {
	return &BookingHandler{bookings: bookings, quotes: quotes, orders: orders}
}

type testRef struct {
	MedicalTestID string `json:"medical_test_id" validate:"required"`
}

type createBookingRequest struct {
	PatientID     string    `json:"patient_id" validate:"required"`
	AddressID     *string   `json:"address_id"`
	ScheduledDate string    `json:"scheduled_date" validate:"required"`
	PaymentMode   string    `json:"payment_mode" validate:"required"`
	TransactionID *string   `json:"transaction_id"`
	Tests         []testRef `json:"tests" validate:"dive"`
}

type summaryRequest struct {
	Tests []testRef `json:"tests" validate:"dive"`
}

func testIDs(refs []testRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, strings.TrimSpace(r.MedicalTestID))
	}
	return ids
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, envelope{Message: "unauthorized"})
	}
	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	when, err := parseDate(req.ScheduledDate)
	if err != nil {
		return badRequest(c, "scheduled_date must be YYYY-MM-DD")
	}

	id, err := h.bookings.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		UserID:        userID,
		PatientID:     req.PatientID,
		AddressID:     emptyToNil(req.AddressID),
		ScheduledDate: when,
		PaymentMode:   req.PaymentMode,
		TransactionID: emptyToNil(req.TransactionID),
		TestIDs:       testIDs(req.Tests),
	})
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusCreated, "Booking created successfully", echo.Map{"booking_id": id})
}

// Summary handles POST /api/v1/bookings/summary.  It prices the selected
// tests grouped by centre without writing anything.
func (h *BookingHandler) Summary(c echo.Context) error {
	var req summaryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}
	q, err := h.quotes.Quote(c.Request().Context(), testIDs(req.Tests))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Booking summary", toQuoteView(q))
}

// List handles GET /api/v1/bookings?status=.
func (h *BookingHandler) List(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, envelope{Message: "unauthorized"})
	}
	orders, err := h.orders.ListForUser(c.Request().Context(), userID, strings.TrimSpace(c.QueryParam("status")))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Bookings fetched successfully", toOrderViews(orders))
}

// Get handles GET /api/v1/bookings/:id.  Another user's booking is
// reported as not found.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, envelope{Message: "unauthorized"})
	}
	o, err := h.orders.GetForUser(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, http.StatusOK, "Booking fetched successfully", toOrderView(*o))
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

