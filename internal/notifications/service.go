// Package notifications stores per-user inbox entries and lets their owners
// read and acknowledge them.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

// Message is the content of one notification, before it is addressed.
type Message struct {
	Type  models.NotificationType
	Title string
	Body  string
	Data  map[string]any
}

// Service implements the notification sink and the inbox operations.
type Service struct {
	store  storage.NotificationStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service. A nil logger falls back to slog.Default.
func NewService(store storage.NotificationStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Notify records msg in userID's inbox.
func (s *Service) Notify(ctx context.Context, userID string, msg Message) error {
	n := &models.Notification{
		UserID:    userID,
		Type:      msg.Type,
		Title:     msg.Title,
		Message:   msg.Body,
		Data:      msg.Data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", userID, err)
	}
	s.logger.DebugContext(ctx, "notification created", "user_id", userID, "type", msg.Type, "notification_id", n.ID)
	return nil
}

// List returns userID's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	list, err := s.store.ListNotifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// MarkRead marks one of userID's notifications as read. Someone else's
// notification is reported as not found.
func (s *Service) MarkRead(ctx context.Context, id, userID string) error {
	err := s.store.MarkNotificationRead(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.New(apperrors.CodeNotificationNotFound, "notification not found")
	}
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of userID and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
