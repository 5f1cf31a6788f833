package models

import "time"

// InvitationStatus tracks an invitation from creation to its single resolution.
// Transitions: pending -> accepted, pending -> rejected. Both targets are terminal.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation asks a registered user to join a group.
type Invitation struct {
	ID        string
	GroupID   string
	InviterID string
	InviteeID string
	Status    InvitationStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	// GroupName and InviterName are populated when invitations are listed
	// for their invitee.
	GroupName   string
	InviterName string
}
