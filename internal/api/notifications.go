package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchday-hq/matchday/internal/notification"
)

type notificationListResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	UnreadCount   int                         `json:"unread_count"`
	Hydrated      bool                        `json:"hydrated"`
}

// handleListNotifications returns the inbox, most recent first. The hydrated
// flag lets clients distinguish "empty inbox" from "not loaded yet".
func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	items := s.notificationSvc.List()
	if items == nil {
		items = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationListResponse{
		Notifications: items,
		UnreadCount:   s.notificationSvc.UnreadCount(),
		Hydrated:      s.notificationSvc.Hydrated(),
	})
}

// handleMarkNotificationRead marks a single notification as read.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.notificationSvc.MarkRead(id) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetNotificationSettings returns the current notification settings.
// The SMTP password is masked before returning.
func (s *Server) handleGetNotificationSettings(w http.ResponseWriter, _ *http.Request) {
	settings, err := s.notificationSvc.GetSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load notification settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateNotificationSettings persists new notification settings.
// If the submitted password is the mask sentinel ("***"), the existing password is kept.
func (s *Server) handleUpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var incoming notification.Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	if err := s.notificationSvc.UpdateSettings(&incoming); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save notification settings")
		return
	}

	// Return the saved settings (with masked password).
	settings, err := s.notificationSvc.GetSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload notification settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleTestNotification sends a test email using the current notification settings.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notificationSvc.TestNotification(r.Context()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
