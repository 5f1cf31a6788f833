package sqlite

import (
	"context"

	"github.com/phobhub/phobhub/internal/models"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = newID(user.ID)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
		user.UpdatedAt = user.CreatedAt
	}

	_, err := s.execWrite(ctx, "create user", `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	return err
}

// GetUserByEmail retrieves a user by their email address, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, scanErr("user by email", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, scanErr("user by ID", err)
	}
	return user, nil
}

func scanUser(row scanner) (*models.User, error) {
	var (
		user                 models.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}
