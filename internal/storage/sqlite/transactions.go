package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phobhub/phobhub/internal/models"
)

const transactionSelect = `
	SELECT t.id, t.user_id, t.category_id, COALESCE(c.name, ''), COALESCE(c.color, ''),
		t.amount, t.date, t.description, t.type, t.owner_type, t.owner_id, t.created_at, t.updated_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

// CreateTransaction inserts a ledger entry.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.ID = newID(txn.ID)
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = nowUTC()
		txn.UpdatedAt = txn.CreatedAt
	}

	_, err := s.execWrite(ctx, "create transaction", `
		INSERT INTO transactions
			(id, user_id, category_id, amount, date, description, type, owner_type, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.CategoryID, txn.Amount, txn.Date.Format(models.DateLayout),
		txn.Description, txn.Type, txn.OwnerType, txn.OwnerID,
		toMillis(txn.CreatedAt), toMillis(txn.UpdatedAt),
	)
	return err
}

// GetTransaction retrieves an entry with its category name and color.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.q.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	txn, err := scanTransaction(row)
	if err != nil {
		return nil, scanErr("transaction", err)
	}
	return txn, nil
}

// UpdateTransaction rewrites every mutable column of an entry.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = nowUTC()
	}
	res, err := s.execWrite(ctx, "update transaction", `
		UPDATE transactions
		SET category_id = ?, amount = ?, date = ?, description = ?, type = ?,
			owner_type = ?, owner_id = ?, updated_at = ?
		WHERE id = ?`,
		txn.CategoryID, txn.Amount, txn.Date.Format(models.DateLayout), txn.Description, txn.Type,
		txn.OwnerType, txn.OwnerID, toMillis(txn.UpdatedAt), txn.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteTransaction hard-deletes an entry.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.execWrite(ctx, "delete transaction", `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// ListTransactions returns the viewer's personal entries plus the entries of
// every group the viewer currently belongs to, narrowed by the filter.
func (s *SQLiteStore) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, error) {
	var (
		where = []string{`((t.owner_type = 'user' AND t.owner_id = ?)
			OR (t.owner_type = 'group' AND t.owner_id IN (SELECT group_id FROM group_members WHERE user_id = ?)))`}
		args = []any{f.ViewerID, f.ViewerID}
	)
	if f.OwnerType != "" {
		where = append(where, `t.owner_type = ? AND t.owner_id = ?`)
		args = append(args, f.OwnerType, f.OwnerID)
	}
	if !f.From.IsZero() {
		where = append(where, `t.date >= ?`)
		args = append(args, f.From.Format(models.DateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, `t.date <= ?`)
		args = append(args, f.To.Format(models.DateLayout))
	}
	if f.Type != "" {
		where = append(where, `t.type = ?`)
		args = append(args, f.Type)
	}
	if f.CategoryID != "" {
		where = append(where, `t.category_id = ?`)
		args = append(args, f.CategoryID)
	}

	query := transactionSelect + ` WHERE ` + strings.Join(where, ` AND `) +
		` ORDER BY t.date DESC, t.created_at DESC, t.rowid DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return collect(rows, "transaction", scanTransaction)
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                    models.Transaction
		date                 string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.CategoryName, &t.CategoryColor,
		&t.Amount, &date, &t.Description, &t.Type, &t.OwnerType, &t.OwnerID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s has malformed date %q: %w", t.ID, date, err)
	}
	t.Date = d
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}
