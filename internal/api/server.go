package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchday-hq/matchday/internal/config"
	"github.com/matchday-hq/matchday/internal/detector"
	"github.com/matchday-hq/matchday/internal/resolve"
	"github.com/matchday-hq/matchday/internal/searchindex"
	"github.com/matchday-hq/matchday/internal/service"
	"github.com/matchday-hq/matchday/internal/upstream"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	index           *searchindex.Index
	resolver        *resolve.CompetitionResolver
	upstream        upstream.Client
	engine          *detector.Engine
	leagues         *config.LeagueRegistry
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided components.
func New(notificationSvc service.NotificationService, index *searchindex.Index, resolver *resolve.CompetitionResolver, client upstream.Client, engine *detector.Engine, leagues *config.LeagueRegistry, logger *slog.Logger) *Server {
	return &Server{
		notificationSvc: notificationSvc,
		index:           index,
		resolver:        resolver,
		upstream:        client,
		engine:          engine,
		leagues:         leagues,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Notification inbox
	r.Get("/notifications", s.handleListNotifications)
	r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)

	// Notification delivery settings
	r.Get("/notifications/settings", s.handleGetNotificationSettings)
	r.Put("/notifications/settings", s.handleUpdateNotificationSettings)
	r.Post("/notifications/test", s.handleTestNotification)

	// Search index
	r.Get("/search/index", s.handleSearchIndex)
	r.Post("/search/index", s.handleRegisterEntities)

	// Leagues and competition resolution
	r.Get("/leagues", s.handleListLeagues)
	r.Get("/leagues/{org}/competitions/{competition}", s.handleResolveCompetition)

	// Competition fixtures
	r.Get("/competitions/{id}/fixtures", s.handleListFixtures)
	r.Post("/competitions/{id}/watch", s.handleWatchCompetition)

	// Match watching and detection
	r.Get("/matches/watched", s.handleListWatched)
	r.Post("/matches/{id}/watch", s.handleWatchMatch)
	r.Delete("/matches/{id}/watch", s.handleUnwatchMatch)
	r.Post("/detection/run", s.handleRunDetection)

	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
