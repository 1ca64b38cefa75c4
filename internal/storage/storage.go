// Package storage provides the persistence collaborators for matchday's
// client-resident state: a narrow key→string document store with SQLite and
// filesystem backends, and an injectable clock for TTL logic.
package storage

import "time"

// Fixed document keys for persisted state.
const (
	KeySearchIndex          = "search_index"
	KeyNotifications        = "notifications"
	KeyNotificationSettings = "notification_settings"
)

// KVStore is the narrow persistence collaborator the core state components
// are written against. Implementations may fail; callers treat read failures
// as "absent" and write failures as best-effort (in-memory state stays
// authoritative for the session).
type KVStore interface {
	// Get returns the stored value for key. The second return is false when
	// the key is absent.
	Get(key string) (string, bool, error)
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Clock returns the current time. Injected so TTL behavior is
// deterministically testable.
type Clock func() time.Time

// SystemClock is the production Clock.
func SystemClock() time.Time { return time.Now() }
