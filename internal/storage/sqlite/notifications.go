package sqlite

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/phobhub/phobhub/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, data, is_read, created_at`

// CreateNotification inserts a notification. Data is stored as protojson
// text of a google.protobuf.Struct.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	n.ID = newID(n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = nowUTC()
	}

	data, err := encodeData(n.Data)
	if err != nil {
		return err
	}

	_, err = s.execWrite(ctx, "create notification", `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.Read, toMillis(n.CreatedAt),
	)
	return err
}

// ListNotifications lists a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return collect(rows, "notification", scanNotification)
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.execWrite(ctx, "mark notification read",
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// MarkAllNotificationsRead flags every unread notification of the user.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.execWrite(ctx, "mark notifications read",
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

func encodeData(data map[string]any) (string, error) {
	st, err := structpb.NewStruct(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode notification data: %w", err)
	}
	b, err := protojson.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to encode notification data: %w", err)
	}
	return string(b), nil
}

func decodeData(raw string) (map[string]any, error) {
	st := &structpb.Struct{}
	if err := protojson.Unmarshal([]byte(raw), st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		n         models.Notification
		data      string
		createdAt int64
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.Read, &createdAt); err != nil {
		return nil, err
	}
	decoded, err := decodeData(data)
	if err != nil {
		return nil, fmt.Errorf("notification %s has malformed data: %w", n.ID, err)
	}
	n.Data = decoded
	n.CreatedAt = fromMillis(createdAt)
	return &n, nil
}
