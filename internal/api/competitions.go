package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchday-hq/matchday/internal/resolve"
)

// handleListLeagues returns the followed organizations and their competitions
// from the league registry.
func (s *Server) handleListLeagues(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.leagues.All())
}

type resolveResponse struct {
	OrgKey         string `json:"org_key"`
	CompetitionKey string `json:"competition_key"`
	CompetitionID  int    `json:"competition_id"`
}

// handleResolveCompetition maps an (organization key, competition key) pair to
// the upstream numeric competition ID. The per-organization competition list
// is fetched once per process and shared across callers.
func (s *Server) handleResolveCompetition(w http.ResponseWriter, r *http.Request) {
	orgKey := chi.URLParam(r, "org")
	compKey := chi.URLParam(r, "competition")

	id, err := s.resolver.ResolveCompetitionID(r.Context(), orgKey, compKey)
	if err != nil {
		if errors.Is(err, resolve.ErrNotFound) {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		s.logger.Error("competition resolution failed", "org", orgKey, "competition", compKey, "error", err)
		writeError(w, http.StatusBadGateway, "upstream competition lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		OrgKey:         orgKey,
		CompetitionKey: compKey,
		CompetitionID:  id,
	})
}
