package models

import "time"

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// TransactionType classifies money flowing in or out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Category labels transactions for a single user.
// Categories are never shared: a group transaction is still filed under a
// category owned by the member who recorded it.
type Category struct {
	ID string

	// UserID is the owner of the category.
	UserID string

	// Name is unique per (UserID, Type).
	Name string

	// Type is the default transaction type for entries filed here.
	Type TransactionType

	// Color is a CSS hex color used by clients.
	Color string

	CreatedAt time.Time
}
