package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"slotnik/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []Message
	failures int
}

func (n *recordingNotifier) Send(ctx context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failures > 0 {
		n.failures--
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) delivered() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Message, len(n.sent))
	copy(out, n.sent)
	return out
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition never met")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatcherDeliversBusEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	logger := zerolog.New(io.Discard)
	d := NewDispatcher(notifier, fastRetry(), 16, &logger)

	bus := events.NewBus()
	d.SubscribeTo(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	err := bus.PublishJSON(events.BookingCreated, events.BookingPayload{
		BookingID: "b-1",
		Email:     "ada@example.com",
		Date:      "2026-03-01",
		Time:      "09:00",
		Status:    "pending",
	})
	require.NoError(t, err)

	waitFor(t, func() bool { return len(notifier.delivered()) == 1 })

	msg := notifier.delivered()[0]
	assert.Equal(t, events.BookingCreated, msg.Event)
	assert.Equal(t, "b-1", msg.BookingID)
	assert.Equal(t, "ada@example.com", msg.Email)
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	notifier := &recordingNotifier{failures: 2}
	logger := zerolog.New(io.Discard)
	d := NewDispatcher(notifier, fastRetry(), 16, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Message{Event: events.BookingConfirmed, BookingID: "b-2"})

	waitFor(t, func() bool { return len(notifier.delivered()) == 1 })
}

func TestDispatcherSwallowsExhaustedRetries(t *testing.T) {
	notifier := &recordingNotifier{failures: 100}
	logger := zerolog.New(io.Discard)
	d := NewDispatcher(notifier, fastRetry(), 16, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)

	d.Enqueue(Message{Event: events.BookingCancelled, BookingID: "b-3"})
	d.Enqueue(Message{Event: events.BookingCreated, BookingID: "b-4"})

	// Both messages fail out; Run keeps going and shuts down cleanly.
	waitFor(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.failures <= 100-6
	})

	cancel()
	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.Empty(t, notifier.delivered())
}

func TestDeliverSkipsBackoffAfterFinalAttempt(t *testing.T) {
	notifier := &recordingNotifier{failures: 100}
	logger := zerolog.New(io.Discard)
	retry := RetryPolicy{MaxRetries: 1, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2}
	d := NewDispatcher(notifier, retry, 16, &logger)

	start := time.Now()
	d.deliver(context.Background(), Message{Event: events.BookingCreated, BookingID: "b-5"})
	assert.Less(t, time.Since(start), time.Second)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	notifier := &recordingNotifier{}
	logger := zerolog.New(io.Discard)
	d := NewDispatcher(notifier, fastRetry(), 1, &logger)

	// Run is not started, so the queue cannot drain.
	d.Enqueue(Message{BookingID: "kept"})
	d.Enqueue(Message{BookingID: "dropped"})

	assert.Len(t, d.queue, 1)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 10*time.Second, p.NextDelay(10))
	assert.Equal(t, time.Second, p.NextDelay(0))
}

func TestRetryPolicyDefaults(t *testing.T) {
	var p RetryPolicy
	assert.Greater(t, p.NextDelay(1), time.Duration(0))
}
