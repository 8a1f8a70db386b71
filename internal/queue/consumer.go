package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Notifier consumes both booking queues and records one notification line
// per event.  It stands in for the outbound email sender.
type Notifier struct {
	url string
	out zerolog.Logger // notification sink
	log zerolog.Logger // operational log
	qos int
}

// NewNotifier returns a Notifier writing notifications to out.
func NewNotifier(url string, out io.Writer, log zerolog.Logger) *Notifier {
	return &Notifier{
		url: url,
		out: zerolog.New(out).With().Timestamp().Logger(),
		log: log.With().Str("component", "notifier").Logger(),
		qos: 50,
	}
}

// OpenNotificationLog opens logs/notifications.log for appending, creating
// the directory when needed.
func OpenNotificationLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return os.OpenFile(filepath.Join(dir, "notifications.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker goes away.
func (n *Notifier) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(n.url)
		if err != nil {
			n.log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = n.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n.log.Warn().Err(err).Msg("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (n *Notifier) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(n.qos, 0, false); err != nil {
		n.log.Warn().Err(err).Msg("set qos failed")
	}

	created, err := subscribe(ch, QueueBookingCreated)
	if err != nil {
		return err
	}
	changed, err := subscribe(ch, QueueItemStatusChanged)
	if err != nil {
		return err
	}
	n.log.Info().Msg("consuming booking events")

	for {
		var d amqp.Delivery
		var ok bool
		var queue string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-created:
			queue = QueueBookingCreated
		case d, ok = <-changed:
			queue = QueueItemStatusChanged
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := n.Handle(queue, d.Body); err != nil {
			n.log.Error().Err(err).Str("queue", queue).Msg("handle message failed")
			// reject without requeue so a bad payload cannot loop
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if err := declare(ch, queue); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// Handle decodes one message from queue and writes its notification line.
func (n *Notifier) Handle(queue string, body []byte) error {
	switch queue {
	case QueueBookingCreated:
		var ev BookingCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		n.out.Info().
			Str("event", queue).
			Str("booking_id", ev.BookingID).
			Str("user_id", ev.UserID).
			Str("patient_id", ev.PatientID).
			Str("scheduled_date", ev.ScheduledDate).
			Strs("medical_test_ids", ev.TestIDs).
			Str("total_amount", ev.TotalAmount).
			Msg("booking confirmed")
	case QueueItemStatusChanged:
		var ev ItemStatusChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		e := n.out.Info().
			Str("event", queue).
			Str("booking_id", ev.BookingID).
			Str("item_id", ev.ItemID).
			Str("from", ev.PreviousStatus).
			Str("to", ev.Status)
		if ev.ReportLink != "" {
			e = e.Str("report_link", ev.ReportLink)
		}
		e.Msg("test status updated")
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
