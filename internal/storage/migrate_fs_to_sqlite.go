package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
)

// migratedKeys lists the legacy file-backed documents that move into SQLite.
var migratedKeys = []string{KeySearchIndex, KeyNotifications, KeyNotificationSettings}

// MigrateFileState imports legacy file-per-key state into the SQLite-backed
// store and removes the migrated files. It is idempotent and safe to run
// unconditionally on every startup: existing SQLite rows are never
// overwritten, and absent legacy files are skipped.
func MigrateFileState(db *sql.DB, stateDir string, logger *slog.Logger) error {
	legacy := NewFileKVStore(stateDir)
	target := NewSQLiteKVStore(db)

	migrated := 0
	for _, key := range migratedKeys {
		value, ok, err := legacy.Get(key)
		if err != nil {
			logger.Warn("skipping unreadable legacy state file", "key", key, "error", err)
			continue
		}
		if !ok {
			continue
		}

		// A row already present in SQLite wins; the legacy copy is stale.
		if _, exists, err := target.Get(key); err != nil {
			return fmt.Errorf("checking migrated key %q: %w", key, err)
		} else if !exists {
			if err := target.Set(key, value); err != nil {
				return fmt.Errorf("migrating key %q: %w", key, err)
			}
			migrated++
		}

		if err := legacy.Remove(key); err != nil {
			logger.Warn("failed to remove migrated legacy file", "key", key, "error", err)
		}
	}

	if migrated > 0 {
		logger.Info("legacy file state migrated to sqlite", "keys", migrated)
	}

	// Drop the state directory once it is empty.
	if entries, err := os.ReadDir(stateDir); err == nil && len(entries) == 0 {
		_ = os.Remove(stateDir)
	}
	return nil
}
