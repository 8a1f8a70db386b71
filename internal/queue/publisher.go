package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends booking events to RabbitMQ.  A connection is dialled per
// publish; booking volume is low and this keeps the server free of
// long-lived broker state.  A publish never outlives its context: the dial
// and AMQP handshake are bounded by the context deadline and the call
// returns ctx.Err() once the context is done.  Errors are logged and
// returned so callers can ignore them without interrupting the request.
type Publisher struct {
	url string
	log zerolog.Logger
}

// defaultDialTimeout bounds dialling when the context has no deadline.
const defaultDialTimeout = 5 * time.Second

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With().Str("component", "publisher").Logger()}
}

// PublishBookingCreated publishes ev to the booking.created queue.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	return p.publish(ctx, QueueBookingCreated, ev)
}

// PublishItemStatusChanged publishes ev to the booking.item_status_changed queue.
func (p *Publisher) PublishItemStatusChanged(ctx context.Context, ev ItemStatusChangedEvent) error {
	return p.publish(ctx, QueueItemStatusChanged, ev)
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queue, err)
	}
	done := make(chan error, 1)
	go func() { done <- p.send(ctx, queue, body) }()
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		p.log.Warn().Err(err).Str("queue", queue).Msg("publish failed")
		return err
	}
	return nil
}

func (p *Publisher) send(ctx context.Context, queue string, body []byte) error {
	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, queue); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// dial connects with a TCP and handshake timeout taken from ctx.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := defaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// declare makes sure queue exists as a durable queue.
func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	return err
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishBookingCreated(context.Context, BookingCreatedEvent) error { return nil }

func (NopPublisher) PublishItemStatusChanged(context.Context, ItemStatusChangedEvent) error {
	return nil
}
