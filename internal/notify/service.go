// Package notify records user notifications, manages per-user notification
// preferences, and best-effort delivers push messages through Expo.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgetflow/backend/internal/apperr"
	"budgetflow/backend/internal/logging"
	"budgetflow/backend/internal/models"
	"budgetflow/backend/internal/store"
)

// Service is the notification dispatcher and preference manager.
type Service struct {
	store  store.Notifications
	pusher Pusher
	log    logging.Logger
}

// NewService creates a notification service. The pusher may be nil, in which
// case notifications are recorded but never pushed.
func NewService(s store.Notifications, pusher Pusher, logger logging.Logger) *Service {
	return &Service{
		store:  s,
		pusher: pusher,
		log:    logger,
	}
}

// GetOrCreatePreferences returns the user's preference row, creating the
// default all-enabled row on first access.
func (s *Service) GetOrCreatePreferences(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !apperr.IsNotFound(err) {
		return models.NotificationPreferences{}, fmt.Errorf("loading preferences: %w", err)
	}

	prefs = models.DefaultPreferences(uuid.NewString(), userID)
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("creating default preferences: %w", err)
	}
	s.log.Debug("created default notification preferences",
		logging.F("user_id", userID))
	return prefs, nil
}

// UpdatePreferences applies the patch to the user's preferences, lazily
// creating them first.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, patch models.PreferencesPatch) (models.NotificationPreferences, error) {
	prefs, err := s.GetOrCreatePreferences(ctx, userID)
	if err != nil {
		return models.NotificationPreferences{}, err
	}

	patch.Apply(&prefs)
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("saving preferences: %w", err)
	}
	return prefs, nil
}

// Dispatch persists a notification and best-effort pushes it. The persisted
// row is the source of truth; a successful push sets sent_at on that same
// row, a failed push leaves it unset and is only logged.
func (s *Service) Dispatch(ctx context.Context, userID string, kind models.NotificationType, title, body string, data map[string]interface{}) (models.Notification, error) {
	notification := models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, notification); err != nil {
		return models.Notification{}, fmt.Errorf("recording notification: %w", err)
	}

	if s.pusher == nil {
		return notification, nil
	}

	prefs, err := s.GetOrCreatePreferences(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("could not load preferences for push",
			logging.F("user_id", userID))
		return notification, nil
	}
	if prefs.PushToken == "" {
		return notification, nil
	}

	if s.pusher.Send(ctx, prefs.PushToken, title, body, data) {
		notification.MarkSent()
		if err := s.store.UpdateNotification(ctx, notification); err != nil {
			s.log.WithError(err).Warn("could not record push delivery time",
				logging.F("notification_id", notification.ID))
		}
	}
	return notification, nil
}

// List returns the user's notifications, optionally unread only.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx, userID, unreadOnly)
}

// UnreadCount returns the number of unread notifications for the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	notifications, err := s.store.ListNotifications(ctx, userID, false)
	if err != nil {
		return err
	}
	for _, notification := range notifications {
		if notification.ID == notificationID {
			notification.MarkRead()
			return s.store.UpdateNotification(ctx, notification)
		}
	}
	return apperr.Errorf(apperr.KindNotFound, "notification %s not found", notificationID)
}
