// Package groups implements group membership and the two collaborative
// workflows built on it: invitations, and unanimous-consent modifications of
// a group's name, description and target amount.
package groups

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/internal/storage"
)

var tracer = otel.Tracer("github.com/phobhub/phobhub/internal/groups")

// Notifier delivers a notification to one user. Failures are logged by the
// workflows and never undo the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg notifications.Message) error
}

// Service runs the group workflows against a store.
type Service struct {
	store    storage.Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for notification failures and workflow events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService builds a Service.
func NewService(store storage.Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// notifyAll sends msg to every user in userIDs.
func (s *Service) notifyAll(ctx context.Context, userIDs []string, msg notifications.Message) {
	for _, id := range userIDs {
		if err := s.notifier.Notify(ctx, id, msg); err != nil {
			s.logger.WarnContext(ctx, "notification failed",
				"user_id", id,
				"type", msg.Type,
				"error", err,
			)
		}
	}
}
