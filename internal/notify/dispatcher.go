package notify

import (
	"context"
	"encoding/json"
	"time"

	"slotnik/internal/events"
	"slotnik/internal/metrics"

	"github.com/rs/zerolog"
)

// Message is one notification to deliver for a finalized booking change.
type Message struct {
	Event     string
	BookingID string
	Email     string
	Name      string
	Date      string
	Time      string
	Status    string
	CreatedAt time.Time
}

// Notifier delivers one message. The production implementation sits in
// front of the mail sender; tests plug in fakes.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes notifications to the log instead of a mail gateway.
// Wired by default so deployments without SMTP still see deliveries.
type LogNotifier struct {
	Logger *zerolog.Logger
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.Logger.Info().
		Str("event", msg.Event).
		Str("booking_id", msg.BookingID).
		Str("email", msg.Email).
		Str("slot", msg.Date+" "+msg.Time).
		Msg("notification")
	return nil
}

// Dispatcher consumes booking events from the bus and delivers them
// asynchronously with retries. Failures are counted and logged, never
// propagated: a booking's durability must not depend on this path.
type Dispatcher struct {
	notifier Notifier
	retry    RetryPolicy
	queue    chan Message
	logger   *zerolog.Logger
	done     chan struct{}
}

func NewDispatcher(notifier Notifier, retry RetryPolicy, queueSize int, logger *zerolog.Logger) *Dispatcher {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if queueSize <= 0 {
		queueSize = 128
	}

	return &Dispatcher{
		notifier: notifier,
		retry:    retry,
		queue:    make(chan Message, queueSize),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// SubscribeTo registers the dispatcher on the booking lifecycle events.
// The bus handler only enqueues, so publishers never block on delivery.
func (d *Dispatcher) SubscribeTo(bus *events.Bus) {
	handler := func(event *events.Event) error {
		var payload events.BookingPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			d.logger.Error().Err(err).Str("event_type", event.Type).Msg("bad event payload")
			return nil
		}
		d.Enqueue(Message{
			Event:     event.Type,
			BookingID: payload.BookingID,
			Email:     payload.Email,
			Name:      payload.Name,
			Date:      payload.Date,
			Time:      payload.Time,
			Status:    payload.Status,
			CreatedAt: event.CreatedAt,
		})
		return nil
	}

	bus.Subscribe(events.BookingCreated, handler)
	bus.Subscribe(events.BookingConfirmed, handler)
	bus.Subscribe(events.BookingCancelled, handler)
}

// Enqueue schedules a message. A full queue drops the message with a log
// line rather than blocking the booking path.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		metrics.IncNotifyFailure()
		d.logger.Error().Str("booking_id", msg.BookingID).Msg("notification queue full, dropping")
	}
}

// Run delivers queued messages until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

// Done is closed when Run has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	var lastErr error
	for attempt := 1; attempt <= d.retry.MaxRetries; attempt++ {
		lastErr = d.notifier.Send(ctx, msg)
		if lastErr == nil {
			return
		}
		if attempt == d.retry.MaxRetries {
			// No retry follows, so no point waiting out the backoff.
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.retry.NextDelay(attempt)):
		}
	}

	metrics.IncNotifyFailure()
	d.logger.Error().Err(lastErr).
		Str("booking_id", msg.BookingID).
		Str("event", msg.Event).
		Int("attempts", d.retry.MaxRetries).
		Msg("notification delivery failed")
}
