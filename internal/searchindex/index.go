// Package searchindex maintains a derived search index of competitions,
// teams, and other entities, persisted across restarts as a single versioned
// snapshot. A snapshot is trusted only when its format version matches this
// code and it is younger than the configured max age; anything else reads as
// an empty index (a cold start), never as partial data.
package searchindex

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/matchday-hq/matchday/internal/storage"
)

// snapshotVersion is bumped whenever the persisted entity shape changes, so
// old snapshots are discarded instead of being silently deserialized.
const snapshotVersion = 1

// DefaultMaxAge is how long a persisted snapshot stays usable.
const DefaultMaxAge = 24 * time.Hour

// EntityType classifies an indexed entity.
type EntityType string

const (
	EntityCompetition EntityType = "competition"
	EntityTeam        EntityType = "team"
	EntityMatch       EntityType = "match"
)

// Entity is a single searchable item. Identity is the (Type, ID) pair.
type Entity struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Link string     `json:"link,omitempty"`
}

// Key returns the composite identity key for the entity.
func (e Entity) Key() string {
	return string(e.Type) + ":" + e.ID
}

// snapshot is the persisted on-disk document. It is self-describing: the
// version and timestamp let a later code version detect and discard it.
type snapshot struct {
	Version   int      `json:"version"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds
	Entries   []Entity `json:"entries"`
}

// Index is the in-memory search index with write-through persistence.
// It is safe for concurrent use.
type Index struct {
	store  storage.KVStore
	clock  storage.Clock
	logger *slog.Logger
	maxAge time.Duration

	mu       sync.Mutex
	entities map[string]Entity
}

// New creates an Index over the given store. A zero maxAge selects
// DefaultMaxAge.
func New(store storage.KVStore, clock storage.Clock, maxAge time.Duration, logger *slog.Logger) *Index {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Index{
		store:    store,
		clock:    clock,
		logger:   logger,
		maxAge:   maxAge,
		entities: make(map[string]Entity),
	}
}

// Load hydrates the in-memory index from the persisted snapshot and returns
// a copy of the result. Absent, unparseable, version-mismatched, or expired
// snapshots all yield an empty index: a bad cache must look like a cold
// start, never leak malformed data.
func (i *Index) Load() map[string]Entity {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entities = make(map[string]Entity)

	raw, ok, err := i.store.Get(storage.KeySearchIndex)
	if err != nil {
		i.logger.Warn("search index read failed, starting cold", "error", err)
		return i.copyLocked()
	}
	if !ok {
		return i.copyLocked()
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		i.logger.Warn("search index snapshot unparseable, discarding", "error", err)
		return i.copyLocked()
	}
	if snap.Version != snapshotVersion {
		i.logger.Info("search index snapshot version mismatch, discarding",
			"stored", snap.Version, "expected", snapshotVersion)
		return i.copyLocked()
	}
	age := i.clock().Sub(time.UnixMilli(snap.Timestamp))
	if age > i.maxAge {
		i.logger.Info("search index snapshot expired, discarding", "age", age.String())
		return i.copyLocked()
	}

	for _, e := range snap.Entries {
		i.entities[e.Key()] = e
	}
	return i.copyLocked()
}

// Register merges entities into the index by composite key (last write wins)
// and persists the full snapshot. Persistence is best-effort: a write failure
// is logged and the in-memory index stays authoritative for the session.
func (i *Index) Register(entities []Entity) {
	if len(entities) == 0 {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, e := range entities {
		i.entities[e.Key()] = e
	}
	i.saveLocked()
}

// Snapshot returns a copy of the current in-memory index keyed by composite
// entity key.
func (i *Index) Snapshot() map[string]Entity {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.copyLocked()
}

// saveLocked writes the full snapshot stamped with the current version and
// time. The on-disk document is overwritten, never merged; merging happens in
// memory before this call. Callers must hold i.mu.
func (i *Index) saveLocked() {
	snap := snapshot{
		Version:   snapshotVersion,
		Timestamp: i.clock().UnixMilli(),
		Entries:   make([]Entity, 0, len(i.entities)),
	}
	for _, e := range i.entities {
		snap.Entries = append(snap.Entries, e)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		i.logger.Warn("search index snapshot encode failed", "error", err)
		return
	}
	if err := i.store.Set(storage.KeySearchIndex, string(raw)); err != nil {
		i.logger.Warn("search index persist failed", "error", err)
	}
}

func (i *Index) copyLocked() map[string]Entity {
	out := make(map[string]Entity, len(i.entities))
	for k, v := range i.entities {
		out[k] = v
	}
	return out
}

// Len returns the number of indexed entities.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entities)
}
