package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Empty is used by procedures without a request or response body.
type Empty struct{}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Auth

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type MeResponse struct {
	User *User `json:"user"`
}

// Groups

type Group struct {
	ID           string              `json:"id"`
	CreatorID    string              `json:"creatorId"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	TargetAmount decimal.NullDecimal `json:"targetAmount"`
	Role         string              `json:"role,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

type Member struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type CreateGroupRequest struct {
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	TargetAmount decimal.NullDecimal `json:"targetAmount"`
}

type GroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type LeaveGroupRequest struct {
	GroupID string `json:"groupId"`
}

type LeaveGroupResponse struct {
	// Resolved lists the pending modifications that leaving settled.
	Resolved []*Modification `json:"resolved"`
}

// Invitations

type Invitation struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	GroupName   string    `json:"groupName,omitempty"`
	InviterID   string    `json:"inviterId"`
	InviterName string    `json:"inviterName,omitempty"`
	InviteeID   string    `json:"inviteeId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type InviteRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type RespondToInvitationRequest struct {
	InvitationID string `json:"invitationId"`
	Accept       bool   `json:"accept"`
}

type InvitationResponse struct {
	Invitation *Invitation `json:"invitation"`
}

type ListInvitationsResponse struct {
	Invitations []*Invitation `json:"invitations"`
}

// Modifications

type Approval struct {
	UserID    string    `json:"userId"`
	Approved  bool      `json:"approved"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Modification struct {
	ID         string      `json:"id"`
	GroupID    string      `json:"groupId"`
	ProposerID string      `json:"proposerId"`
	Type       string      `json:"modificationType"`
	OldValue   string      `json:"oldValue"`
	NewValue   string      `json:"newValue"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	ResolvedAt *time.Time  `json:"resolvedAt,omitempty"`
	Approvals  []*Approval `json:"approvals,omitempty"`
}

type ProposeModificationRequest struct {
	GroupID  string `json:"groupId"`
	Type     string `json:"modificationType"`
	NewValue string `json:"newValue"`
}

type RespondToModificationRequest struct {
	ModificationID string `json:"modificationId"`
	Approve        bool   `json:"approve"`
}

// RespondToModificationResponse echoes the vote just recorded. Modification
// shows whether that vote resolved it.
type RespondToModificationResponse struct {
	Approved     bool          `json:"approved"`
	Modification *Modification `json:"modification"`
}

type GetModificationRequest struct {
	ModificationID string `json:"modificationId"`
}

type ModificationResponse struct {
	Modification *Modification `json:"modification"`
}

type ListModificationsRequest struct {
	GroupID string `json:"groupId"`
	Status  string `json:"status,omitempty"`
}

type ListModificationsResponse struct {
	Modifications []*Modification `json:"modifications"`
}

// Categories

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

type UpdateCategoryRequest struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Type  *string `json:"type,omitempty"`
	Color *string `json:"color,omitempty"`
}

type CategoryResponse struct {
	Category *Category `json:"category"`
}

type ListCategoriesRequest struct {
	Type string `json:"type,omitempty"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type DeleteCategoryRequest struct {
	ID string `json:"id"`
}

// Transactions

type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryColor string          `json:"categoryColor"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	OwnerType     string          `json:"ownerType"`
	OwnerID       string          `json:"ownerId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CreateTransactionRequest struct {
	CategoryID  string          `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type,omitempty"`
	OwnerType   string          `json:"ownerType,omitempty"`
	OwnerID     string          `json:"ownerId,omitempty"`
}

// UpdateTransactionRequest carries only the fields to change. OwnerType and
// OwnerID must be sent together.
type UpdateTransactionRequest struct {
	ID          string           `json:"id"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Date        *string          `json:"date,omitempty"`
	Description *string          `json:"description,omitempty"`
	Type        *string          `json:"type,omitempty"`
	OwnerType   *string          `json:"ownerType,omitempty"`
	OwnerID     *string          `json:"ownerId,omitempty"`
}

type TransactionRequest struct {
	ID string `json:"id"`
}

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	OwnerType  string `json:"ownerType,omitempty"`
	OwnerID    string `json:"ownerId,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Type       string `json:"type,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

// Notifications

type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unreadOnly,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

type MarkReadRequest struct {
	ID string `json:"id"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
