package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownChangeKind = errors.New("unknown modification type")
	ErrInvalidChange     = errors.New("invalid modification value")
)

// ChangeKind names the group attribute a modification targets.
type ChangeKind string

const (
	ChangeTargetAmount ChangeKind = "target_amount"
	ChangeName         ChangeKind = "name"
	ChangeDescription  ChangeKind = "description"
)

// Change is a proposed edit to one group attribute. The set of
// implementations is closed: TargetAmountChange, NameChange and
// DescriptionChange.
type Change interface {
	Kind() ChangeKind
	// Value is the canonical text form stored as the proposal's new value.
	Value() string
	// Current reads the attribute the change targets from g.
	Current(g *Group) string
	// Apply writes the proposed value into g.
	Apply(g *Group)

	sealed()
}

// TargetAmountChange sets a group's savings goal.
type TargetAmountChange struct {
	Amount decimal.Decimal
}

func (TargetAmountChange) Kind() ChangeKind { return ChangeTargetAmount }
func (c TargetAmountChange) Value() string { return c.Amount.String() }
func (TargetAmountChange) sealed() {}

func (TargetAmountChange) Current(g *Group) string {
	if !g.TargetAmount.Valid {
		return ""
	}
	return g.TargetAmount.Decimal.String()
}

func (c TargetAmountChange) Apply(g *Group) {
	g.TargetAmount = decimal.NewNullDecimal(c.Amount)
}

// NameChange renames a group.
type NameChange struct {
	Name string
}

func (NameChange) Kind() ChangeKind { return ChangeName }
func (c NameChange) Value() string { return c.Name }
func (NameChange) Current(g *Group) string { return g.Name }
func (c NameChange) Apply(g *Group) { g.Name = c.Name }
func (NameChange) sealed() {}

// DescriptionChange replaces a group's description. An empty description
// clears it.
type DescriptionChange struct {
	Description string
}

func (DescriptionChange) Kind() ChangeKind { return ChangeDescription }
func (c DescriptionChange) Value() string { return c.Description }
func (DescriptionChange) Current(g *Group) string { return g.Description }
func (c DescriptionChange) Apply(g *Group) { g.Description = c.Description }
func (DescriptionChange) sealed() {}

// ParseChange validates a (kind, value) pair and returns the typed change.
func ParseChange(kind ChangeKind, value string) (Change, error) {
	switch kind {
	case ChangeTargetAmount:
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: target amount %q is not a number", ErrInvalidChange, value)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: target amount must not be negative", ErrInvalidChange)
		}
		return TargetAmountChange{Amount: amount}, nil
	case ChangeName:
		name := strings.TrimSpace(value)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidChange)
		}
		return NameChange{Name: name}, nil
	case ChangeDescription:
		return DescriptionChange{Description: strings.TrimSpace(value)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChangeKind, kind)
	}
}

// ModificationStatus mirrors InvitationStatus: pending resolves exactly once,
// to approved or rejected.
type ModificationStatus string

const (
	ModificationPending  ModificationStatus = "pending"
	ModificationApproved ModificationStatus = "approved"
	ModificationRejected ModificationStatus = "rejected"
)

// Modification is a proposal to change one group attribute.
type Modification struct {
	ID         string
	GroupID    string
	ProposerID string
	Change     Change

	// OldValue is the attribute's value when the proposal was made, kept for
	// display. It is never used to apply the change.
	OldValue string

	Status     ModificationStatus
	CreatedAt  time.Time
	ResolvedAt time.Time

	// Approvals is populated when a single modification is fetched.
	Approvals []Approval
}

// Approval is one member's current vote on a modification. A member has at
// most one approval per modification; voting again overwrites it.
type Approval struct {
	ModificationID string
	UserID         string
	Approved       bool
	UpdatedAt      time.Time
}
