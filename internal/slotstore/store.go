package slotstore

import (
	"context"
	"errors"

	"slotnik/internal/models"
)

// ErrUnavailable marks storage read/write failures. Callers surface it
// generically; the engine never retries behind it.
var ErrUnavailable = errors.New("slot store unavailable")

// Store is a durable key-value mapping from one logical key to the full
// ordered booking collection. It offers whole-collection read and write
// only — no compare-and-swap. Atomicity of read-modify-write cycles is
// the engine's responsibility, not the store's. A Load of a key that was
// never written returns an empty slice and no error.
type Store interface {
	Load(ctx context.Context) ([]models.Booking, error)
	Save(ctx context.Context, bookings []models.Booking) error
	Close() error
}
