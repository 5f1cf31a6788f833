package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for transaction dates.
const DateLayout = "2006-01-02"

// OwnerType says which ledger a transaction belongs to.
type OwnerType string

const (
	OwnerUser  OwnerType = "user"
	OwnerGroup OwnerType = "group"
)

// Transaction is a single income or expense entry.
//
// Ownership (OwnerType, OwnerID) decides visibility: user-owned entries are
// visible to that user only, group-owned entries to the group's current
// members. UserID records who created the entry and never changes.
type Transaction struct {
	ID string

	// UserID is the creator.
	UserID string

	CategoryID string

	// CategoryName and CategoryColor are joined in on reads.
	CategoryName  string
	CategoryColor string

	// Amount is always positive; Type carries the direction.
	Amount decimal.Decimal

	// Date is a calendar day in UTC.
	Date time.Time

	Description string
	Type        TransactionType
	OwnerType   OwnerType
	OwnerID     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionFilter narrows a ledger listing. Zero values mean "no filter".
type TransactionFilter struct {
	// ViewerID is the user the listing is computed for. Required.
	ViewerID string

	OwnerType  OwnerType
	OwnerID    string
	From       time.Time
	To         time.Time
	Type       TransactionType
	CategoryID string
}
