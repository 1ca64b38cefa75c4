// Package detector turns periodic polling of watched matches into
// notifications. It is the single producer of the notification inbox: per
// cycle it fetches each watched match's status, normalizes it, diffs it
// against the last known state, and emits GAME_START / GAME_END /
// UPCOMING_FIXTURE notifications with deterministic, content-derived IDs so
// re-processing a transition after a restart deduplicates naturally.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/matchday-hq/matchday/internal/eventbus"
	"github.com/matchday-hq/matchday/internal/matchstatus"
	"github.com/matchday-hq/matchday/internal/metrics"
	"github.com/matchday-hq/matchday/internal/notification"
	"github.com/matchday-hq/matchday/internal/storage"
	"github.com/matchday-hq/matchday/internal/upstream"
)

// DefaultLookahead is how far ahead of kickoff an UPCOMING_FIXTURE
// notification fires.
const DefaultLookahead = 30 * time.Minute

const defaultMaxConcurrency = 4

// Config holds the engine's collaborators and tuning knobs.
type Config struct {
	Client upstream.Client
	Store  *notification.Store
	// Bus is optional. When set, emitted notifications are also published
	// as events for best-effort delivery channels.
	Bus     eventbus.Bus
	Metrics *metrics.Metrics
	Clock   storage.Clock
	Logger  *slog.Logger

	// Lookahead is the UPCOMING_FIXTURE window. Zero selects DefaultLookahead.
	Lookahead time.Duration
	// NotificationTTL stamps ExpiresAt on emitted notifications. Zero
	// selects notification.DefaultTTL.
	NotificationTTL time.Duration
	// FetchTimeout bounds each per-match poll. Zero selects upstream.DefaultTimeout.
	FetchTimeout time.Duration
	// MaxConcurrency bounds parallel polls within one cycle.
	MaxConcurrency int
}

// watchState tracks one watched match across polling cycles.
type watchState struct {
	matchID    int
	label      string
	startTime  time.Time
	lastStatus matchstatus.Status
	appliedSeq uint64 // last cycle whose poll result was applied
}

// WatchedMatch is the externally visible view of a watch entry.
type WatchedMatch struct {
	MatchID   int                `json:"match_id"`
	Label     string             `json:"label"`
	StartTime time.Time          `json:"start_time,omitzero"`
	Status    matchstatus.Status `json:"status"`
}

// Engine owns the watch set. External callers interact only through its
// methods; RunCycle is invoked by an outside scheduler, never self-scheduled.
type Engine struct {
	cfg       Config
	semaphore chan struct{}

	mu           sync.Mutex
	watches      map[int]*watchState
	seq          uint64
	cycleRunning bool
}

// New creates an Engine.
func New(cfg Config) *Engine {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.NotificationTTL <= 0 {
		cfg.NotificationTTL = notification.DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = upstream.DefaultTimeout
	}
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrency
	}
	return &Engine{
		cfg:       cfg,
		semaphore: make(chan struct{}, maxConc),
		watches:   make(map[int]*watchState),
	}
}

// Watch adds a match to the watch set. initial is the status known at watch
// time (normalized from fixture data); pass matchstatus.StatusUnknown when
// nothing is known yet. Watching an already-watched match updates its label
// and start time but never regresses its observed status.
func (e *Engine) Watch(matchID int, label string, startTime time.Time, initial matchstatus.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.watches[matchID]; ok {
		if label != "" {
			existing.label = label
		}
		if !startTime.IsZero() {
			existing.startTime = startTime
		}
		return
	}

	e.watches[matchID] = &watchState{
		matchID:    matchID,
		label:      label,
		startTime:  startTime,
		lastStatus: initial,
	}
	e.cfg.Logger.Info("watching match", "match_id", matchID, "label", label, "initial_status", string(initial))
}

// Unwatch removes a match from the watch set.
func (e *Engine) Unwatch(matchID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.watches[matchID]; ok {
		delete(e.watches, matchID)
		e.cfg.Logger.Info("unwatched match", "match_id", matchID)
	}
}

// Watched returns the current watch set sorted by match ID.
func (e *Engine) Watched() []WatchedMatch {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]WatchedMatch, 0, len(e.watches))
	for _, w := range e.watches {
		out = append(out, WatchedMatch{
			MatchID:   w.matchID,
			Label:     w.label,
			StartTime: w.startTime,
			Status:    w.lastStatus,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out
}

// pollResult carries one match's fetched summary back to the apply phase.
type pollResult struct {
	matchID int
	summary *upstream.MatchSummary
	err     error
}

// RunCycle executes one polling cycle: fetch every watched match's status
// concurrently, then apply the results in poll-initiation order. A failed
// poll for one match never aborts the others; its watch state is left
// untouched and retried next cycle. If a cycle is already in flight the call
// returns immediately.
func (e *Engine) RunCycle(ctx context.Context) {
	e.mu.Lock()
	if e.cycleRunning {
		e.mu.Unlock()
		e.cfg.Logger.Debug("detection cycle already in flight, skipping")
		return
	}
	e.cycleRunning = true
	e.seq++
	seq := e.seq

	ids := make([]int, 0, len(e.watches))
	for id := range e.watches {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.cycleRunning = false
		e.mu.Unlock()
	}()

	// Poll-initiation order is fixed up front; results are applied in this
	// order regardless of arrival, so a slow fetch cannot overwrite a state
	// that a later-initiated poll already advanced.
	sort.Ints(ids)

	results := make([]pollResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, matchID int) {
			defer wg.Done()
			e.semaphore <- struct{}{}
			defer func() { <-e.semaphore }()

			fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
			defer cancel()

			summary, err := e.cfg.Client.MatchSummary(fetchCtx, matchID)
			results[i] = pollResult{matchID: matchID, summary: summary, err: err}
		}(i, id)
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			// Isolated failure: log, leave the watch state unchanged, and
			// let the next cycle retry. No transition is ever inferred
			// from a fetch failure.
			e.cfg.Logger.Warn("match poll failed", "match_id", res.matchID, "error", res.err)
			if e.cfg.Metrics != nil {
				e.cfg.Metrics.DetectionFailures.Inc()
			}
			continue
		}
		e.apply(seq, res)
	}

	e.checkUpcomingFixtures()

	if e.cfg.Metrics != nil {
		e.cfg.Metrics.DetectionCycles.Inc()
	}
}

// apply diffs one poll result against the watch state and emits the
// appropriate notification.
func (e *Engine) apply(seq uint64, res pollResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w, ok := e.watches[res.matchID]
	if !ok {
		// Unwatched while the poll was in flight.
		return
	}
	if w.appliedSeq >= seq {
		// A newer cycle already applied a result for this match; this one
		// arrived too late to matter.
		return
	}
	w.appliedSeq = seq

	if res.summary.Label() != "" && w.label == "" {
		w.label = res.summary.Label()
	}
	if w.startTime.IsZero() && !res.summary.StartTime.IsZero() {
		w.startTime = res.summary.StartTime
	}

	status := matchstatus.Normalize(res.summary.Status)
	if status == matchstatus.StatusUnknown {
		// No information, not a state change. The state holds so an
		// upstream glitch cannot fake a transition.
		return
	}
	if status == w.lastStatus {
		return
	}

	switch {
	case w.lastStatus == matchstatus.StatusUnknown:
		// First recognized reading establishes the baseline silently. A
		// match first seen as ENDED has nothing left to announce.
		w.lastStatus = status
		if status == matchstatus.StatusEnded {
			delete(e.watches, res.matchID)
		}

	case w.lastStatus == matchstatus.StatusScheduled && status == matchstatus.StatusLive:
		w.lastStatus = status
		e.emitLocked(notification.TypeGameStart, w, fmt.Sprintf("%s is live!", w.displayName()))

	case status == matchstatus.StatusEnded:
		// Terminal, including SCHEDULED→ENDED when the LIVE poll was
		// missed; only the end is announced in that case.
		w.lastStatus = status
		e.emitLocked(notification.TypeGameEnd, w, fmt.Sprintf("%s has finished.", w.displayName()))
		delete(e.watches, res.matchID)

	default:
		// Backwards movement (e.g. LIVE→SCHEDULED) is an upstream glitch;
		// hold the state.
		e.cfg.Logger.Warn("ignoring status regression",
			"match_id", w.matchID, "from", string(w.lastStatus), "to", string(status))
	}
}

// checkUpcomingFixtures emits an UPCOMING_FIXTURE notification for every
// watched fixture whose kickoff falls inside the lookahead window. Emission
// is idempotent through the deterministic ID and the store's append-dedup.
func (e *Engine) checkUpcomingFixtures() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.cfg.Clock()
	for _, w := range e.watches {
		if w.lastStatus != matchstatus.StatusScheduled || w.startTime.IsZero() {
			continue
		}
		until := w.startTime.Sub(now)
		if until < 0 || until > e.cfg.Lookahead {
			continue
		}
		e.emitLocked(notification.TypeUpcomingFixture, w,
			fmt.Sprintf("%s starts at %s.", w.displayName(), w.startTime.Format(time.Kitchen)))
	}
}

// emitLocked appends a notification for w and publishes a matching event.
// Callers must hold e.mu.
func (e *Engine) emitLocked(typ notification.Type, w *watchState, message string) {
	now := e.cfg.Clock()
	n := notification.Notification{
		ID:        notification.DeterministicID(typ, w.matchID),
		Type:      typ,
		Timestamp: now,
		Message:   message,
		Link:      fmt.Sprintf("/match/%d", w.matchID),
		MatchID:   w.matchID,
		ExpiresAt: now.Add(e.cfg.NotificationTTL),
	}

	if !e.cfg.Store.Append(n) {
		// Already emitted for this transition; nothing new to deliver.
		return
	}

	e.cfg.Logger.Info("notification emitted",
		"type", string(typ), "match_id", w.matchID, "id", n.ID)
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.NotificationsEmitted.Inc()
		e.cfg.Metrics.DetectionTransitions.WithLabelValues(string(typ)).Inc()
	}
	if e.cfg.Bus != nil {
		e.cfg.Bus.Publish(eventType(typ), map[string]string{
			"match_id": fmt.Sprint(w.matchID),
			"match":    w.displayName(),
			"message":  message,
		})
	}
}

func eventType(typ notification.Type) string {
	switch typ {
	case notification.TypeGameStart:
		return eventbus.EventMatchStarted
	case notification.TypeGameEnd:
		return eventbus.EventMatchEnded
	default:
		return eventbus.EventUpcomingFixture
	}
}

func (w *watchState) displayName() string {
	if w.label != "" {
		return w.label
	}
	return fmt.Sprintf("Match %d", w.matchID)
}
