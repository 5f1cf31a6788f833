package sqlite

import (
	"context"
	"fmt"

	"github.com/phobhub/phobhub/internal/models"
)

const invitationColumns = `i.id, i.group_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.updated_at`

// CreateInvitation inserts an invitation. The partial unique index on
// pending (group_id, invitee_id) turns a second pending invitation into
// storage.ErrConflict.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	inv.ID = newID(inv.ID)
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = nowUTC()
		inv.UpdatedAt = inv.CreatedAt
	}
	_, err := s.execWrite(ctx, "create invitation", `
		INSERT INTO group_invitations (id, group_id, inviter_id, invitee_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.GroupID, inv.InviterID, inv.InviteeID, inv.Status,
		toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt),
	)
	return err
}

// GetInvitation retrieves an invitation by ID.
func (s *SQLiteStore) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM group_invitations i WHERE i.id = ?`, id)
	inv, err := scanInvitation(row)
	if err != nil {
		return nil, scanErr("invitation", err)
	}
	return inv, nil
}

// FindPendingInvitation returns the pending invitation for (groupID, inviteeID).
func (s *SQLiteStore) FindPendingInvitation(ctx context.Context, groupID, inviteeID string) (*models.Invitation, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM group_invitations i
		WHERE i.group_id = ? AND i.invitee_id = ? AND i.status = 'pending'`,
		groupID, inviteeID,
	)
	inv, err := scanInvitation(row)
	if err != nil {
		return nil, scanErr("pending invitation", err)
	}
	return inv, nil
}

// ResolveInvitation is a conditional write: only a pending row moves.
func (s *SQLiteStore) ResolveInvitation(ctx context.Context, id string, status models.InvitationStatus) (bool, error) {
	res, err := s.execWrite(ctx, "resolve invitation", `
		UPDATE group_invitations SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		status, toMillis(nowUTC()), id,
	)
	if err != nil {
		return false, err
	}
	return rowsChanged(res)
}

// ListPendingInvitations lists the invitee's open invitations with group and
// inviter names.
func (s *SQLiteStore) ListPendingInvitations(ctx context.Context, inviteeID string) ([]*models.Invitation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+invitationColumns+`, g.name, u.name
		FROM group_invitations i
		JOIN user_groups g ON g.id = i.group_id
		JOIN users u ON u.id = i.inviter_id
		WHERE i.invitee_id = ? AND i.status = 'pending'
		ORDER BY i.created_at DESC, i.rowid DESC`,
		inviteeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return collect(rows, "invitation", func(row scanner) (*models.Invitation, error) {
		var (
			inv                  models.Invitation
			createdAt, updatedAt int64
		)
		if err := row.Scan(&inv.ID, &inv.GroupID, &inv.InviterID, &inv.InviteeID, &inv.Status,
			&createdAt, &updatedAt, &inv.GroupName, &inv.InviterName); err != nil {
			return nil, err
		}
		inv.CreatedAt = fromMillis(createdAt)
		inv.UpdatedAt = fromMillis(updatedAt)
		return &inv, nil
	})
}

func scanInvitation(row scanner) (*models.Invitation, error) {
	var (
		inv                  models.Invitation
		createdAt, updatedAt int64
	)
	if err := row.Scan(&inv.ID, &inv.GroupID, &inv.InviterID, &inv.InviteeID, &inv.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return &inv, nil
}
