package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking records one order placed by a user for one patient.  It groups
// one or more line items created in the same transaction.
//
// Fields:
//  ID            – booking_id, a UUID assigned at creation and never changed.
//  UserID        – user who placed the booking.
//  PatientID     – patient the tests are for.
//  AddressID     – optional sample collection address.
//  BookingDate   – when the booking was placed.
//  ScheduledDate – requested service date.
//  Status        – overall booking status (defaulted by the store).
//  PaymentStatus – payment state (defaulted by the store).
//  PaymentMode   – opaque payment mode label.
//  TransactionID – opaque payment transaction reference.
//  CreatedAt     – creation timestamp.
type Booking struct {
	ID            string    // test_bookings.booking_id
	UserID        string    // test_bookings.user_id
	PatientID     string    // test_bookings.patient_id
	AddressID     *string   // test_bookings.address_id (nullable)
	BookingDate   time.Time // test_bookings.booking_date
	ScheduledDate time.Time // test_bookings.scheduled_date
	Status        string    // test_bookings.status
	PaymentStatus string    // test_bookings.payment_status
	PaymentMode   string    // test_bookings.payment_mode
	TransactionID *string   // test_bookings.transaction_id (nullable)
	CreatedAt     time.Time // test_bookings.created_at
}

// BookingLineItem is one ordered test within a booking.  Price holds the
// snapshot copied from the offering when the booking was created; it is
// never updated afterwards.
//
// Fields:
//  ID            – item_id, a UUID.
//  BookingID     – owning booking.
//  MedicalTestID – centre-specific offering the item was ordered against.
//  Price         – price snapshot.
//  Status        – fulfillment status.
//  ReportLink    – URL of the attached report, if any.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last status change.
type BookingLineItem struct {
	ID            string          // test_booking_items.item_id
	BookingID     string          // test_booking_items.booking_id
	MedicalTestID string          // test_booking_items.medical_test_id
	Price         decimal.Decimal // test_booking_items.test_price
	Status        ItemStatus      // test_booking_items.status
	ReportLink    *string         // test_booking_items.report_link (nullable)
	CreatedAt     time.Time       // test_booking_items.created_at
	UpdatedAt     time.Time       // test_booking_items.updated_at
}
