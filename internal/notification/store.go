package notification

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/matchday-hq/matchday/internal/storage"
)

// snapshotVersion is bumped whenever the persisted notification shape
// changes; mismatched snapshots are discarded on load.
const snapshotVersion = 1

// DefaultCap bounds the number of notifications kept in the inbox.
const DefaultCap = 50

// storeSnapshot is the persisted document under storage.KeyNotifications.
type storeSnapshot struct {
	Version       int            `json:"version"`
	Notifications []Notification `json:"notifications"`
}

// Store owns the notification collection exclusively. All mutations are
// read-modify-write under one mutex and persisted before the mutex is
// released, so a concurrent mutation either fully precedes or fully follows
// another, never interleaves.
type Store struct {
	store  storage.KVStore
	clock  storage.Clock
	logger *slog.Logger
	cap    int

	mu       sync.Mutex
	items    []Notification // most recent first
	hydrated bool
}

// NewStore creates a Store over the given persistence collaborator.
// A cap <= 0 selects DefaultCap.
func NewStore(store storage.KVStore, clock storage.Clock, cap int, logger *slog.Logger) *Store {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Store{
		store:  store,
		clock:  clock,
		logger: logger,
		cap:    cap,
	}
}

// Load hydrates the inbox from persisted storage, dropping entries that
// expired while the process was not running before they are ever exposed.
// Absent, unparseable, or version-mismatched snapshots hydrate to an empty
// inbox. Load is called once at startup; calling it again re-reads storage.
func (s *Store) Load() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.hydrated = true

	raw, ok, err := s.store.Get(storage.KeyNotifications)
	if err != nil {
		s.logger.Warn("notification storage read failed, starting empty", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var snap storeSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("notification snapshot unparseable, discarding", "error", err)
		return nil
	}
	if snap.Version != snapshotVersion {
		s.logger.Info("notification snapshot version mismatch, discarding",
			"stored", snap.Version, "expected", snapshotVersion)
		return nil
	}

	s.items = snap.Notifications
	s.pruneLocked()
	return s.listLocked()
}

// Append inserts n at the head of the inbox unless a notification with the
// same ID already exists; re-detecting the same event must not duplicate.
// After insertion the collection is truncated to the cap (oldest dropped
// first), pruned of expired entries, and persisted. Returns true if the
// notification was inserted.
func (s *Store) Append(n Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ID == n.ID {
			return false
		}
	}

	s.items = append([]Notification{n}, s.items...)
	if len(s.items) > s.cap {
		s.items = s.items[:s.cap]
	}
	s.pruneLocked()
	s.persistLocked()
	return true
}

// MarkRead sets the read flag on the notification with the given ID and
// persists. It is a no-op if no such notification exists.
func (s *Store) MarkRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for idx := range s.items {
		if s.items[idx].ID == id {
			if !s.items[idx].Read {
				s.items[idx].Read = true
				s.persistLocked()
			}
			return true
		}
	}
	return false
}

// List returns the notifications, most recent first, after pruning expired
// entries.
func (s *Store) List() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pruneLocked() {
		s.persistLocked()
	}
	return s.listLocked()
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Hydrated reports whether Load has completed, letting consumers distinguish
// "no notifications" from "not loaded yet".
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// pruneLocked drops expired entries. Returns true if anything was removed.
// Callers must hold s.mu.
func (s *Store) pruneLocked() bool {
	now := s.clock()
	kept := s.items[:0]
	for _, n := range s.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	changed := len(kept) != len(s.items)
	s.items = kept
	return changed
}

// persistLocked writes the full snapshot. Failures are logged and swallowed;
// the in-memory collection stays authoritative for the session. Callers must
// hold s.mu.
func (s *Store) persistLocked() {
	snap := storeSnapshot{
		Version:       snapshotVersion,
		Notifications: s.items,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("notification snapshot encode failed", "error", err)
		return
	}
	if err := s.store.Set(storage.KeyNotifications, string(raw)); err != nil {
		s.logger.Warn("notification persist failed", "error", err)
	}
}

func (s *Store) listLocked() []Notification {
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}
