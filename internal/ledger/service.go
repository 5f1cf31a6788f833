// Package ledger manages categories and the ownership-scoped transaction
// ledger: every entry belongs either to one user or to one group, and group
// entries are visible to and editable by the group's current members.
package ledger

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/phobhub/phobhub/internal/storage"
)

var tracer = otel.Tracer("github.com/phobhub/phobhub/internal/ledger")

// Service runs ledger operations against a store.
type Service struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService builds a Service.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}
