package slotstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"slotnik/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call while broken is set.
type flakyStore struct {
	inner  *MemoryStore
	broken bool
}

func (s *flakyStore) Load(ctx context.Context) ([]models.Booking, error) {
	if s.broken {
		return nil, ErrUnavailable
	}
	return s.inner.Load(ctx)
}

func (s *flakyStore) Save(ctx context.Context, bookings []models.Booking) error {
	if s.broken {
		return ErrUnavailable
	}
	return s.inner.Save(ctx, bookings)
}

func (s *flakyStore) Close() error { return nil }

func newFailover(t *testing.T) (*FailoverStore, *flakyStore, *MemoryStore) {
	t.Helper()
	primary := &flakyStore{inner: NewMemoryStore()}
	fallback := NewMemoryStore()
	logger := zerolog.New(io.Discard)
	return NewFailoverStore(primary, fallback, &logger), primary, fallback
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	store, primary, fallback := newFailover(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleBookings()))

	got, err := primary.inner.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// The fallback is kept warm on every successful primary write.
	warm, err := fallback.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, warm, 2)
}

func TestFailoverSwitchesToFallback(t *testing.T) {
	store, primary, fallback := newFailover(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleBookings()))
	primary.broken = true

	// The collection written before the outage is still served.
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Writes land in the fallback while the primary is down.
	require.NoError(t, store.Save(ctx, sampleBookings()[:1]))
	got, err = fallback.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFailoverDoesNotProbeImmediately(t *testing.T) {
	store, primary, _ := newFailover(t)
	ctx := context.Background()

	primary.broken = true
	_, err := store.Load(ctx)
	require.NoError(t, err)

	// Primary recovers, but the probe interval has not elapsed yet, so
	// reads keep hitting the fallback.
	primary.broken = false
	require.NoError(t, primary.inner.Save(ctx, sampleBookings()))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, store.isDown.Load())
}

func TestFailoverCloseClosesBoth(t *testing.T) {
	primary := &flakyStore{inner: NewMemoryStore()}
	fallback := NewMemoryStore()
	logger := zerolog.New(io.Discard)
	store := NewFailoverStore(primary, fallback, &logger)

	assert.NoError(t, store.Close())
}

func TestFailoverPropagatesFallbackErrors(t *testing.T) {
	primary := &flakyStore{inner: NewMemoryStore(), broken: true}
	fallback := &flakyStore{inner: NewMemoryStore(), broken: true}
	logger := zerolog.New(io.Discard)
	store := NewFailoverStore(primary, fallback, &logger)

	_, err := store.Load(context.Background())
	assert.True(t, errors.Is(err, ErrUnavailable))
}
