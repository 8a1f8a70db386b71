// Package queue defines the booking events exchanged over RabbitMQ, the
// publisher used by the services and the notification consumer.
package queue

// Queue names.  Each event type has its own durable queue and is routed
// through the default exchange.
const (
	QueueBookingCreated    = "booking.created"
	QueueItemStatusChanged = "booking.item_status_changed"
)

// BookingCreatedEvent is published after a booking and its line items have
// been committed.  It carries enough to notify the user without reading
// the database again.
type BookingCreatedEvent struct {
	BookingID     string   `json:"booking_id"`
	UserID        string   `json:"user_id"`
	PatientID     string   `json:"patient_id"`
	ScheduledDate string   `json:"scheduled_date"`
	PaymentMode   string   `json:"payment_mode"`
	TestIDs       []string `json:"medical_test_ids"`
	TotalAmount   string   `json:"total_amount"` // decimal string, e.g. "1250.50"
	CreatedAt     string   `json:"created_at"`
}

// ItemStatusChangedEvent is published after a line item status update has
// been committed.
type ItemStatusChangedEvent struct {
	BookingID      string `json:"booking_id"`
	ItemID         string `json:"item_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	ReportLink     string `json:"report_link,omitempty"`
	ChangedAt      string `json:"changed_at"`
}
