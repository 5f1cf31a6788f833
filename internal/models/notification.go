package models

import "time"

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationGroupInvitation      NotificationType = "group_invitation"
	NotificationModificationProposed NotificationType = "modification_proposed"
)

// Notification is a per-user inbox entry.
type Notification struct {
	ID      string
	UserID  string
	Type    NotificationType
	Title   string
	Message string

	// Data carries the ids a client needs to act on the notification,
	// e.g. {"groupId": ..., "invitationId": ...}.
	Data map[string]any

	Read      bool
	CreatedAt time.Time
}
