package slotstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.db")
	store, err := NewSQLiteStore(path, "bookings:test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()

	t.Run("LoadEmptyCollection", func(t *testing.T) {
		bookings, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})

	t.Run("SaveAndLoadRoundTrip", func(t *testing.T) {
		want := sampleBookings()
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("SaveOverwritesWholeCollection", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleBookings()))
		require.NoError(t, store.Save(ctx, nil))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("KeysAreIsolated", func(t *testing.T) {
		other, err := NewSQLiteStore(path, "bookings:other")
		require.NoError(t, err)
		t.Cleanup(func() { _ = other.Close() })

		require.NoError(t, store.Save(ctx, sampleBookings()))

		got, err := other.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, "bookings:test")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sampleBookings()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, "bookings:test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
