package sqlite

import (
	"context"
	"fmt"

	"github.com/phobhub/phobhub/internal/models"
)

const categoryColumns = `id, user_id, name, type, color, created_at`

// CreateCategory inserts a category owned by category.UserID.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	category.ID = newID(category.ID)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = nowUTC()
	}

	_, err := s.execWrite(ctx, "create category", `
		INSERT INTO categories (id, user_id, name, type, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID, category.UserID, category.Name, category.Type, category.Color, toMillis(category.CreatedAt),
	)
	return err
}

// GetCategory retrieves a category by ID regardless of owner.
func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	category, err := scanCategory(row)
	if err != nil {
		return nil, scanErr("category", err)
	}
	return category, nil
}

// ListCategories lists a user's categories, optionally of one type.
func (s *SQLiteStore) ListCategories(ctx context.Context, userID string, typ models.TransactionType) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = ?`
	args := []any{userID}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, typ)
	}
	query += ` ORDER BY name`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return collect(rows, "category", scanCategory)
}

// UpdateCategory rewrites name, type and color.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := s.execWrite(ctx, "update category",
		`UPDATE categories SET name = ?, type = ?, color = ? WHERE id = ?`,
		category.Name, category.Type, category.Color, category.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// DeleteCategory removes a category. Transactions still referencing it make
// the foreign key fail, reported as storage.ErrConflict.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.execWrite(ctx, "delete category", `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// CategoryInUse reports whether any transaction is filed under the category.
func (s *SQLiteStore) CategoryInUse(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category usage: %w", err)
	}
	return exists, nil
}

func scanCategory(row scanner) (*models.Category, error) {
	var (
		c         models.Category
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return &c, nil
}
