package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/pkg/api"
)

// NotificationService implements the NotificationService procedures.
type NotificationService struct {
	notifications *notifications.Service
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(svc *notifications.Service, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: svc, logger: logger}
}

func (s *NotificationService) List(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.notifications.List(ctx, userID, req.Msg.UnreadOnly)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListNotifications", err)
	}

	out := make([]*api.Notification, len(list))
	for i, n := range list {
		out[i] = toAPINotification(n)
	}
	return connect.NewResponse(&api.ListNotificationsResponse{Notifications: out}), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, req *connect.Request[api.MarkReadRequest]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.notifications.MarkRead(ctx, req.Msg.ID, userID); err != nil {
		return nil, toConnectError(ctx, s.logger, "MarkRead", err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.MarkAllReadResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "MarkAllRead", err)
	}
	return connect.NewResponse(&api.MarkAllReadResponse{Updated: n}), nil
}
