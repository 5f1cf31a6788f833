package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a member's role inside a group. It is recorded but grants no
// extra privileges: every member may invite and propose.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group is a set of users sharing a ledger and an optional savings target.
//
// Name, Description and TargetAmount only change through an approved
// Modification.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// CreatorID is the user who created the group. The creator joins as admin.
	CreatorID string

	// Name is the display name of the group (e.g., "Flat", "Trip to Lisbon").
	Name string

	// Description is optional; empty means none.
	Description string

	// TargetAmount is the group's savings goal, if any.
	TargetAmount decimal.NullDecimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links a user to a group.
type Membership struct {
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time

	// UserName and UserEmail are filled when memberships are listed with
	// their users joined in.
	UserName  string
	UserEmail string
}

// GroupSummary is a group as seen by one of its members.
type GroupSummary struct {
	Group
	Role Role
}
