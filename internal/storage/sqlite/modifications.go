package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phobhub/phobhub/internal/models"
)

const modificationColumns = `id, group_id, proposer_id, kind, new_value, old_value, status, created_at, resolved_at`

// CreateModification inserts a proposal. The change is stored as its kind
// plus canonical value.
func (s *SQLiteStore) CreateModification(ctx context.Context, mod *models.Modification) error {
	mod.ID = newID(mod.ID)
	if mod.CreatedAt.IsZero() {
		mod.CreatedAt = nowUTC()
	}

	var resolvedAt sql.NullInt64
	if !mod.ResolvedAt.IsZero() {
		resolvedAt = sql.NullInt64{Int64: toMillis(mod.ResolvedAt), Valid: true}
	}

	_, err := s.execWrite(ctx, "create modification", `
		INSERT INTO group_modifications (`+modificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mod.ID, mod.GroupID, mod.ProposerID, mod.Change.Kind(), mod.Change.Value(), mod.OldValue,
		mod.Status, toMillis(mod.CreatedAt), resolvedAt,
	)
	return err
}

// GetModification retrieves a modification by ID, without approvals.
func (s *SQLiteStore) GetModification(ctx context.Context, id string) (*models.Modification, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+modificationColumns+` FROM group_modifications WHERE id = ?`, id)
	mod, err := scanModification(row)
	if err != nil {
		return nil, scanErr("modification", err)
	}
	return mod, nil
}

// ListModifications lists a group's modifications, newest first.
func (s *SQLiteStore) ListModifications(ctx context.Context, groupID string, status models.ModificationStatus) ([]*models.Modification, error) {
	query := `SELECT ` + modificationColumns + ` FROM group_modifications WHERE group_id = ?`
	args := []any{groupID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list modifications: %w", err)
	}
	return collect(rows, "modification", scanModification)
}

// ResolveModification is a conditional write: only a pending row moves.
func (s *SQLiteStore) ResolveModification(ctx context.Context, id string, status models.ModificationStatus) (bool, error) {
	res, err := s.execWrite(ctx, "resolve modification", `
		UPDATE group_modifications SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`,
		status, toMillis(nowUTC()), id,
	)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// UpdateApproval overwrites an existing vote.
func (s *SQLiteStore) UpdateApproval(ctx context.Context, a *models.Approval) (bool, error) {
	res, err := s.execWrite(ctx, "update approval", `
		UPDATE modification_approvals SET approved = ?, updated_at = ?
		WHERE modification_id = ? AND user_id = ?`,
		a.Approved, toMillis(a.UpdatedAt), a.ModificationID, a.UserID,
	)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// InsertApproval records a first vote.
func (s *SQLiteStore) InsertApproval(ctx context.Context, a *models.Approval) error {
	_, err := s.execWrite(ctx, "insert approval", `
		INSERT INTO modification_approvals (modification_id, user_id, approved, updated_at)
		VALUES (?, ?, ?, ?)`,
		a.ModificationID, a.UserID, a.Approved, toMillis(a.UpdatedAt),
	)
	return err
}

// DeleteApproval drops a vote. Deleting a missing vote is not an error.
func (s *SQLiteStore) DeleteApproval(ctx context.Context, modificationID, userID string) error {
	_, err := s.execWrite(ctx, "delete approval",
		`DELETE FROM modification_approvals WHERE modification_id = ? AND user_id = ?`,
		modificationID, userID,
	)
	return err
}

// ListApprovals lists every vote on a modification in the order first cast.
func (s *SQLiteStore) ListApprovals(ctx context.Context, modificationID string) ([]*models.Approval, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT modification_id, user_id, approved, updated_at
		FROM modification_approvals WHERE modification_id = ?
		ORDER BY rowid`,
		modificationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	return collect(rows, "approval", func(row scanner) (*models.Approval, error) {
		var (
			a         models.Approval
			updatedAt int64
		)
		if err := row.Scan(&a.ModificationID, &a.UserID, &a.Approved, &updatedAt); err != nil {
			return nil, err
		}
		a.UpdatedAt = fromMillis(updatedAt)
		return &a, nil
	})
}

func scanModification(row scanner) (*models.Modification, error) {
	var (
		m          models.Modification
		kind       models.ChangeKind
		newValue   string
		createdAt  int64
		resolvedAt sql.NullInt64
	)
	if err := row.Scan(&m.ID, &m.GroupID, &m.ProposerID, &kind, &newValue, &m.OldValue,
		&m.Status, &createdAt, &resolvedAt); err != nil {
		return nil, err
	}
	change, err := models.ParseChange(kind, newValue)
	if err != nil {
		return nil, fmt.Errorf("stored modification %s: %w", m.ID, err)
	}
	m.Change = change
	m.CreatedAt = fromMillis(createdAt)
	if resolvedAt.Valid {
		m.ResolvedAt = fromMillis(resolvedAt.Int64)
	}
	return &m, nil
}
