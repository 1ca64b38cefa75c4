package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matchday-hq/matchday/internal/matchstatus"
	"github.com/matchday-hq/matchday/internal/upstream"
)

type fixturesResponse struct {
	Fixtures []upstream.MatchSummary `json:"fixtures"`
	Count    int                     `json:"count"`
}

// handleListFixtures returns the fixture list of a competition straight from
// the upstream API. Shape failures surface as fetch failures, never as
// partial data.
func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	compID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || compID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid competition id")
		return
	}

	fixtures, err := s.upstream.Fixtures(r.Context(), compID)
	if err != nil {
		s.logger.Error("fixture listing failed", "competition_id", compID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream fixture lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, fixturesResponse{Fixtures: fixtures, Count: len(fixtures)})
}

// handleWatchCompetition fetches a competition's fixtures and puts every
// match that has not already finished on the detection watch set, seeded
// with the fixture's label, start time, and current status. This is how the
// upcoming-fixture window gets real kickoff times instead of relying on the
// caller to supply them per match.
func (s *Server) handleWatchCompetition(w http.ResponseWriter, r *http.Request) {
	compID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || compID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid competition id")
		return
	}

	fixtures, err := s.upstream.Fixtures(r.Context(), compID)
	if err != nil {
		s.logger.Error("fixture listing failed", "competition_id", compID, "error", err)
		writeError(w, http.StatusBadGateway, "upstream fixture lookup failed")
		return
	}

	watched := 0
	for _, fx := range fixtures {
		status := matchstatus.Normalize(fx.Status)
		if status == matchstatus.StatusEnded {
			continue
		}
		s.engine.Watch(fx.ID, fx.Label(), fx.StartTime, status)
		watched++
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"fixtures": len(fixtures),
		"watched":  watched,
	})
}
