package eventbus

import "time"

// Event type constants for match lifecycle events produced by the detection
// engine.
const (
	EventMatchStarted    = "detector.match.started"
	EventMatchEnded      = "detector.match.ended"
	EventUpcomingFixture = "detector.fixture.upcoming"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
