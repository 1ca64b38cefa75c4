// Package matchstatus normalizes the upstream API's free-form match status
// strings into a canonical four-state enum. The upstream vocabulary is
// inconsistent and undocumented; every consumer in this codebase reasons
// about exactly these four states.
package matchstatus

import "strings"

// Status is the canonical lifecycle state of a match.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusEnded     Status = "ENDED"
	StatusUnknown   Status = "UNKNOWN"
)

// normalized maps upper-cased upstream status strings to canonical states.
var normalized = map[string]Status{
	"SCHEDULED":   StatusScheduled,
	"LIVE":        StatusLive,
	"INPROGRESS":  StatusLive,
	"IN PROGRESS": StatusLive,
	"ENDED":       StatusEnded,
	"FINAL":       StatusEnded,
}

// Normalize maps a raw upstream status string to a canonical Status.
// The lookup is case-insensitive; anything unrecognized (including the
// empty string) maps to StatusUnknown. Normalize never fails.
func Normalize(raw string) Status {
	if s, ok := normalized[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

// IsLive reports whether the raw upstream status denotes a match in progress.
func IsLive(raw string) bool {
	return Normalize(raw) == StatusLive
}

// IsEnded reports whether the raw upstream status denotes a finished match.
func IsEnded(raw string) bool {
	return Normalize(raw) == StatusEnded
}
