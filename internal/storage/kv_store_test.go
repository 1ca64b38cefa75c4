package storage_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchday-hq/matchday/internal/storage"
)

func newTestDB(t *testing.T) *storage.SQLiteKVStore {
	t.Helper()
	db, fresh, err := storage.NewSQLiteDB(filepath.Join(t.TempDir(), "matchday.db"), nil)
	require.NoError(t, err)
	require.True(t, fresh)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteKVStore(db)
}

func TestSQLiteKVStore_RoundTrip(t *testing.T) {
	store := newTestDB(t)

	_, ok, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("k", `{"v":1}`))
	v, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"v":1}`, v)

	// Overwrite, not merge.
	require.NoError(t, store.Set("k", `{"v":2}`))
	v, _, err = store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, v)

	require.NoError(t, store.Remove("k"))
	_, ok, err = store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, store.Remove("k"))
}

func TestFileKVStore_RoundTrip(t *testing.T) {
	store := storage.NewFileKVStore(filepath.Join(t.TempDir(), "state"))

	_, ok, err := store.Get("notifications")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set("notifications", "payload"))
	v, ok, err := store.Get("notifications")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", v)

	require.NoError(t, store.Remove("notifications"))
	require.NoError(t, store.Remove("notifications"))
}

func TestMigrateFileState(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")

	legacy := storage.NewFileKVStore(stateDir)
	require.NoError(t, legacy.Set(storage.KeyNotifications, `{"version":1,"notifications":[]}`))

	db, _, err := storage.NewSQLiteDB(filepath.Join(dir, "matchday.db"), nil)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	require.NoError(t, storage.MigrateFileState(db, stateDir, logger))

	target := storage.NewSQLiteKVStore(db)
	v, ok, err := target.Get(storage.KeyNotifications)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"version":1,"notifications":[]}`, v)

	// The legacy file is gone.
	_, ok, err = legacy.Get(storage.KeyNotifications)
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent: running again changes nothing and never overwrites SQLite.
	require.NoError(t, target.Set(storage.KeyNotifications, "newer"))
	require.NoError(t, storage.MigrateFileState(db, stateDir, logger))
	v, _, err = target.Get(storage.KeyNotifications)
	require.NoError(t, err)
	assert.Equal(t, "newer", v)
}
