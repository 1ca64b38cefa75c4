// Package service contains the orchestration layer between the HTTP API and
// the core state components.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/matchday-hq/matchday/internal/notification"
	"github.com/matchday-hq/matchday/internal/storage"
)

const maskedPassword = "***"

// NotificationService manages the inbox and the email delivery settings.
type NotificationService interface {
	// List returns the inbox, most recent first.
	List() []notification.Notification
	// MarkRead marks one notification as read. Returns false if absent.
	MarkRead(id string) bool
	// Hydrated reports whether the inbox has been loaded from storage.
	Hydrated() bool
	// UnreadCount returns the number of unread notifications.
	UnreadCount() int

	// GetSettings returns the email settings with the SMTP password masked.
	GetSettings() (*notification.Settings, error)
	// UpdateSettings persists new email settings. If the password field is
	// the mask sentinel, the existing password is preserved.
	UpdateSettings(settings *notification.Settings) error
	// TestNotification sends a test email with the current settings and
	// drops a matching entry into the inbox.
	TestNotification(ctx context.Context) error
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	store  *notification.Store
	kv     storage.KVStore
	clock  storage.Clock
	logger *slog.Logger
	sendFn func(ctx context.Context, cfg notification.SMTPConfig, msg notification.Message) error
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store *notification.Store, kv storage.KVStore, clock storage.Clock, logger *slog.Logger) NotificationService {
	return &notificationServiceImpl{
		store:  store,
		kv:     kv,
		clock:  clock,
		logger: logger,
		sendFn: func(ctx context.Context, cfg notification.SMTPConfig, msg notification.Message) error {
			return notification.NewSMTPProvider(cfg).Send(ctx, msg)
		},
	}
}

func (s *notificationServiceImpl) List() []notification.Notification { return s.store.List() }

func (s *notificationServiceImpl) MarkRead(id string) bool { return s.store.MarkRead(id) }

func (s *notificationServiceImpl) Hydrated() bool { return s.store.Hydrated() }

func (s *notificationServiceImpl) UnreadCount() int { return s.store.UnreadCount() }

// LoadSettings reads the persisted email settings. Absent or unreadable
// settings yield the zero value (email delivery disabled), never an error
// surfaced to delivery paths.
func LoadSettings(kv storage.KVStore) (*notification.Settings, error) {
	raw, ok, err := kv.Get(storage.KeyNotificationSettings)
	if err != nil || !ok || raw == "" || raw == "{}" {
		return &notification.Settings{}, nil
	}

	var ns notification.Settings
	if err := json.Unmarshal([]byte(raw), &ns); err != nil {
		return nil, fmt.Errorf("parsing notification settings: %w", err)
	}
	return &ns, nil
}

// GetSettings returns the current settings with the SMTP password masked.
func (s *notificationServiceImpl) GetSettings() (*notification.Settings, error) {
	ns, err := LoadSettings(s.kv)
	if err != nil {
		return nil, err
	}
	if ns.Provider.Password != "" {
		ns.Provider.Password = maskedPassword
	}
	return ns, nil
}

// UpdateSettings saves the email settings. If the incoming password is the
// mask sentinel, the previously stored password is preserved.
func (s *notificationServiceImpl) UpdateSettings(incoming *notification.Settings) error {
	if incoming.Provider.Password == maskedPassword {
		existing, err := LoadSettings(s.kv)
		if err != nil {
			return fmt.Errorf("loading existing settings: %w", err)
		}
		incoming.Provider.Password = existing.Provider.Password
	}

	raw, err := json.Marshal(incoming)
	if err != nil {
		return fmt.Errorf("encoding notification settings: %w", err)
	}
	if err := s.kv.Set(storage.KeyNotificationSettings, string(raw)); err != nil {
		return fmt.Errorf("saving notification settings: %w", err)
	}
	return nil
}

// TestNotification sends a test email using the current SMTP config
// regardless of whether email delivery is enabled, so users can verify
// credentials before committing. A test entry also lands in the inbox.
func (s *notificationServiceImpl) TestNotification(ctx context.Context) error {
	ns, err := LoadSettings(s.kv)
	if err != nil {
		return err
	}

	now := s.clock()
	s.store.Append(notification.Notification{
		ID:        "test:" + uuid.NewString(),
		Type:      notification.TypeUpcomingFixture,
		Timestamp: now,
		Message:   "This is a test notification from Matchday.",
		ExpiresAt: now.Add(time.Hour),
	})

	return s.sendFn(ctx, ns.Provider, notification.Message{
		Subject: notification.SubjectPrefix + "Test Notification",
		Body:    "This is a test notification from Matchday.\n\nYour SMTP configuration is working correctly.",
	})
}
