package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/matchday-hq/matchday/internal/eventbus"
)

const sendTimeout = 30 * time.Second

// SettingsLoader loads the current email notification settings. It is called
// on every event so configuration changes take effect without a restart.
type SettingsLoader func() (*Settings, error)

// ProviderFactory builds a Provider from the current SMTP configuration.
// Swappable in tests.
type ProviderFactory func(SMTPConfig) Provider

// Handler receives match events from the event bus and delivers them by
// email according to the current settings. Delivery is best-effort: failures
// are logged, never retried, and never affect the in-app inbox.
type Handler struct {
	settingsLoader SettingsLoader
	newProvider    ProviderFactory
	logger         *slog.Logger
}

// NewHandler creates a Handler. A nil factory uses the SMTP provider.
func NewHandler(loader SettingsLoader, factory ProviderFactory, logger *slog.Logger) *Handler {
	if factory == nil {
		factory = func(cfg SMTPConfig) Provider { return NewSMTPProvider(cfg) }
	}
	return &Handler{settingsLoader: loader, newProvider: factory, logger: logger}
}

// humanSubject returns a readable email subject for a given event type.
// Unknown types fall back to the raw event type string.
func humanSubject(eventType string) string {
	switch eventType {
	case eventbus.EventMatchStarted:
		return "Match Started"
	case eventbus.EventMatchEnded:
		return "Match Finished"
	case eventbus.EventUpcomingFixture:
		return "Upcoming Fixture"
	}
	return eventType
}

// shouldSendForEvent returns false when the user's preferences explicitly
// disable emails for the given event type.
func shouldSendForEvent(eventType string, settings *Settings) bool {
	prefs := settings.Preferences
	switch eventType {
	case eventbus.EventMatchStarted:
		return prefs.GameStartEnabled()
	case eventbus.EventMatchEnded:
		return prefs.GameEndEnabled()
	case eventbus.EventUpcomingFixture:
		return prefs.UpcomingFixtureEnabled()
	}
	return true
}

// Handle processes one event: loads settings, builds the message, and calls
// the provider. Registered on the event bus via bus.Subscribe(h.Handle).
func (h *Handler) Handle(e eventbus.Event) {
	settings, err := h.settingsLoader()
	if err != nil {
		h.logger.Warn("notification: failed to load settings", "error", err)
		return
	}
	if !settings.Enabled {
		return
	}
	if !shouldSendForEvent(e.Type, settings) {
		return
	}

	provider := h.newProvider(settings.Provider)
	subject := buildSubject(humanSubject(e.Type))

	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bodyParts := make([]string, 0, len(keys))
	for _, k := range keys {
		bodyParts = append(bodyParts, fmt.Sprintf("%s: %s", k, e.Payload[k]))
	}
	body := strings.Join(bodyParts, "\n")

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := provider.Send(ctx, Message{Subject: subject, Body: body}); err != nil {
		h.logger.Warn("notification: email delivery failed",
			"event", e.Type, "provider", provider.Name(), "error", err)
		return
	}
	h.logger.Info("notification: email delivered",
		"event", e.Type, "provider", provider.Name(), "subject", subject)
}
