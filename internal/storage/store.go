// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/phobhub/phobhub/internal/models"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a uniqueness or
	// reference constraint.
	ErrConflict = errors.New("conflict")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. The ID is assigned when empty.
	// Returns ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns ErrNotFound when no user has the ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByEmail returns ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// CategoryStore persists per-user categories.
type CategoryStore interface {
	// CreateCategory returns ErrConflict when (user, name, type) already exists.
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	// ListCategories returns the user's categories ordered by name.
	// An empty typ lists every type.
	ListCategories(ctx context.Context, userID string, typ models.TransactionType) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
	// CategoryInUse reports whether any transaction references the category.
	CategoryInUse(ctx context.Context, id string) (bool, error)
}

// GroupStore persists groups and their memberships.
type GroupStore interface {
	// CreateGroup inserts the group and the creator's admin membership together.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	// UpdateGroup writes name, description and target amount.
	UpdateGroup(ctx context.Context, group *models.Group) error
	// ListGroupsForUser returns the user's groups with their role, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error)

	// AddMember returns ErrConflict when the user already belongs to the group.
	AddMember(ctx context.Context, membership *models.Membership) error
	// RemoveMember returns ErrNotFound when there is no such membership.
	RemoveMember(ctx context.Context, groupID, userID string) error
	// GetMembership returns ErrNotFound when the user is not a member.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)
	// ListMembers returns memberships with user name and email, in join order.
	ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error)
}

// InvitationStore persists group invitations.
type InvitationStore interface {
	// CreateInvitation returns ErrConflict when a pending invitation for the
	// same (group, invitee) exists.
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, id string) (*models.Invitation, error)
	// FindPendingInvitation returns ErrNotFound when there is none.
	FindPendingInvitation(ctx context.Context, groupID, inviteeID string) (*models.Invitation, error)
	// ResolveInvitation moves a pending invitation to status. It reports
	// false, without error, when the invitation was no longer pending.
	ResolveInvitation(ctx context.Context, id string, status models.InvitationStatus) (bool, error)
	// ListPendingInvitations returns the invitee's pending invitations, newest first.
	ListPendingInvitations(ctx context.Context, inviteeID string) ([]*models.Invitation, error)
}

// ModificationStore persists proposals and their votes.
type ModificationStore interface {
	CreateModification(ctx context.Context, mod *models.Modification) error
	// GetModification returns the modification without its approvals.
	GetModification(ctx context.Context, id string) (*models.Modification, error)
	// ListModifications returns the group's modifications, newest first.
	// An empty status lists every status.
	ListModifications(ctx context.Context, groupID string, status models.ModificationStatus) ([]*models.Modification, error)
	// ResolveModification moves a pending modification to status. It reports
	// false, without error, when the modification was no longer pending.
	ResolveModification(ctx context.Context, id string, status models.ModificationStatus) (bool, error)

	// UpdateApproval overwrites an existing vote and reports whether one existed.
	UpdateApproval(ctx context.Context, approval *models.Approval) (bool, error)
	InsertApproval(ctx context.Context, approval *models.Approval) error
	DeleteApproval(ctx context.Context, modificationID, userID string) error
	ListApprovals(ctx context.Context, modificationID string) ([]*models.Approval, error)
}

// TransactionStore persists ledger entries.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	// GetTransaction returns the entry with its category joined in.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	// ListTransactions returns every entry visible to filter.ViewerID
	// (personal plus member groups) matching the filter, ordered by date
	// then creation, newest first.
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]*models.Transaction, error)
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns the user's notifications, newest first.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)
	// MarkNotificationRead returns ErrNotFound unless the notification
	// belongs to userID.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	// MarkAllNotificationsRead returns the number of notifications updated.
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
}

// Store is the complete persistence surface.
// This abstraction allows swapping storage backends (SQLite, in-memory)
// without changing the workflows.
type Store interface {
	UserStore
	CategoryStore
	GroupStore
	InvitationStore
	ModificationStore
	TransactionStore
	NotificationStore

	// InTx runs fn against a Store whose reads and writes form one atomic
	// unit. Concurrent InTx calls are serialised. When fn returns an error
	// nothing it wrote is kept. Calling InTx on the Store passed to fn runs
	// fn inline.
	InTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
