package slotstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slotnik/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a single-key blob store for deployments that have no
// Redis: one row per logical key holding the serialized collection. It
// honors the same whole-collection, last-writer-wins contract.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(path, key string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}

	query := `CREATE TABLE IF NOT EXISTS collections (
        key TEXT PRIMARY KEY,
        payload BLOB NOT NULL,
        updated_at DATETIME NOT NULL
    )`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.Booking, error) {
	var payload []byte
	query := `SELECT payload FROM collections WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, s.key).Scan(&payload)
	if err == sql.ErrNoRows {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read collection: %v", ErrUnavailable, err)
	}

	var bookings []models.Booking
	if err := json.Unmarshal(payload, &bookings); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal collection: %v", ErrUnavailable, err)
	}

	return bookings, nil
}

func (s *SQLiteStore) Save(ctx context.Context, bookings []models.Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	query := `INSERT INTO collections (key, payload, updated_at) VALUES (?, ?, ?)
              ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, s.key, data, time.Now()); err != nil {
		return fmt.Errorf("%w: failed to write collection: %v", ErrUnavailable, err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
