package slotstore

import (
	"context"
	"sync/atomic"
	"time"

	"slotnik/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStore serves from the primary and switches to the fallback when
// the primary errors. The primary is re-probed after recoveryInterval.
// While failed over, durability degrades to the fallback's guarantees;
// this is logged loudly so operators notice.
type FailoverStore struct {
	primary   Store
	fallback  Store
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const recoveryInterval = time.Minute

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverStore) Load(ctx context.Context) ([]models.Booking, error) {
	if !s.isDown.Load() {
		bookings, err := s.primary.Load(ctx)
		if err == nil {
			return bookings, nil
		}
		s.markDown(err)
	}

	if s.shouldProbe() {
		bookings, err := s.primary.Load(ctx)
		if err == nil {
			s.isDown.Store(false)
			s.logger.Info().Msg("primary slot store recovered")
			return bookings, nil
		}
		s.lastCheck.Store(time.Now().UnixNano())
	}

	return s.fallback.Load(ctx)
}

func (s *FailoverStore) Save(ctx context.Context, bookings []models.Booking) error {
	if !s.isDown.Load() {
		err := s.primary.Save(ctx, bookings)
		if err == nil {
			// Keep the fallback warm so a failover does not lose the collection.
			_ = s.fallback.Save(ctx, bookings)
			return nil
		}
		s.markDown(err)
	}

	return s.fallback.Save(ctx, bookings)
}

func (s *FailoverStore) Close() error {
	err := s.primary.Close()
	if ferr := s.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("primary slot store failed, falling back")
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().UnixNano())
}

func (s *FailoverStore) shouldProbe() bool {
	return s.isDown.Load() && time.Since(time.Unix(0, s.lastCheck.Load())) > recoveryInterval
}
