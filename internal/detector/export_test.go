package detector

import "github.com/matchday-hq/matchday/internal/upstream"

// ApplyPollResult exposes the private apply step for external tests.
func (e *Engine) ApplyPollResult(seq uint64, matchID int, summary *upstream.MatchSummary) {
	e.apply(seq, pollResult{matchID: matchID, summary: summary})
}
