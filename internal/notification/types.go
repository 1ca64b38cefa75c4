// Package notification implements matchday's user-facing notification inbox:
// a capped, deduplicated, TTL-evicting collection persisted on every
// mutation, plus an optional SMTP delivery channel for detection events.
package notification

import (
	"fmt"
	"time"
)

// Type classifies a notification.
type Type string

const (
	TypeGameStart       Type = "GAME_START"
	TypeGameEnd         Type = "GAME_END"
	TypeUpcomingFixture Type = "UPCOMING_FIXTURE"
)

// DefaultTTL is how long a notification stays in the inbox before eviction.
const DefaultTTL = 48 * time.Hour

// Notification is a single inbox entry. IDs are unique within the store;
// detection-produced notifications derive their ID from content so that
// re-processing the same transition after a restart deduplicates naturally.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	MatchID   int       `json:"match_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the notification's TTL has passed at the given
// time. A zero ExpiresAt never expires.
func (n Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}

// DeterministicID builds the content-derived notification ID for a detection
// event, so the same transition always maps to the same inbox entry.
func DeterministicID(t Type, matchID int) string {
	return fmt.Sprintf("%s:%d", t, matchID)
}
