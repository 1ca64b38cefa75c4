package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matchday-hq/matchday/internal/detector"
	"github.com/matchday-hq/matchday/internal/matchstatus"
)

// handleListWatched returns the current watch set sorted by match ID.
func (s *Server) handleListWatched(w http.ResponseWriter, _ *http.Request) {
	watched := s.engine.Watched()
	if watched == nil {
		watched = []detector.WatchedMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": watched,
		"count":   len(watched),
	})
}

type watchMatchRequest struct {
	Label     string    `json:"label"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`
}

// handleWatchMatch adds a match to the detection watch set. The optional
// status field seeds the transition baseline from fixture data; raw provider
// status strings are accepted and normalized.
func (s *Server) handleWatchMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || matchID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	var req watchMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	s.engine.Watch(matchID, req.Label, req.StartTime, matchstatus.Normalize(req.Status))
	writeJSON(w, http.StatusOK, map[string]string{"status": "watching"})
}

// handleUnwatchMatch removes a match from the watch set.
func (s *Server) handleUnwatchMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || matchID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	s.engine.Unwatch(matchID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunDetection triggers one detection cycle immediately, outside the
// scheduler cadence. If a cycle is already in flight the call returns without
// starting another.
func (s *Server) handleRunDetection(w http.ResponseWriter, r *http.Request) {
	s.engine.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
