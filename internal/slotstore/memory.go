package slotstore

import (
	"context"
	"sync"

	"slotnik/internal/models"
)

// MemoryStore keeps the collection in process memory. Used by tests and as
// the failover fallback. Load returns a copy so callers never share the
// backing slice.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings []models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, bookings []models.Booking) error {
	snapshot := make([]models.Booking, len(bookings))
	copy(snapshot, bookings)

	s.mu.Lock()
	s.bookings = snapshot
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
