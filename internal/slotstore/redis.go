package slotstore

import (
	"context"
	"encoding/json"
	"fmt"

	"slotnik/internal/config"
	"slotnik/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the whole booking collection as one JSON value under a
// single key. Writes are last-writer-wins; see Store for the atomicity
// contract.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisClient creates a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]models.Booking, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrUnavailable)
	}

	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read collection: %v", ErrUnavailable, err)
	}

	var bookings []models.Booking
	if err := json.Unmarshal([]byte(val), &bookings); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal collection: %v", ErrUnavailable, err)
	}

	return bookings, nil
}

func (s *RedisStore) Save(ctx context.Context, bookings []models.Booking) error {
	if s.client == nil {
		return fmt.Errorf("%w: redis client is nil", ErrUnavailable)
	}

	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	// The collection is permanent state, no TTL.
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: failed to write collection: %v", ErrUnavailable, err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Ping verifies the Redis connection at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
