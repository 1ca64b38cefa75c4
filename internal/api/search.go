package api

import (
	"encoding/json"
	"net/http"

	"github.com/matchday-hq/matchday/internal/searchindex"
)

type searchIndexResponse struct {
	Entities []searchindex.Entity `json:"entities"`
	Count    int                  `json:"count"`
}

// handleSearchIndex returns every registered searchable entity.
func (s *Server) handleSearchIndex(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.index.Snapshot()
	entities := make([]searchindex.Entity, 0, len(snapshot))
	for _, e := range snapshot {
		entities = append(entities, e)
	}
	writeJSON(w, http.StatusOK, searchIndexResponse{
		Entities: entities,
		Count:    len(entities),
	})
}

type registerEntitiesRequest struct {
	Entities []searchindex.Entity `json:"entities"`
}

// handleRegisterEntities merges a batch of entities into the search index.
// Registration is last-write-wins on the (type, id) pair.
func (s *Server) handleRegisterEntities(w http.ResponseWriter, r *http.Request) {
	var req registerEntitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	for _, e := range req.Entities {
		if e.Type == "" || e.ID == "" {
			writeError(w, http.StatusBadRequest, "entity type and id are required")
			return
		}
	}

	s.index.Register(req.Entities)
	writeJSON(w, http.StatusOK, map[string]int{"count": s.index.Len()})
}
