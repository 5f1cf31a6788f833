package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

const groupColumns = `g.id, g.creator_id, g.name, g.description, g.target_amount, g.created_at, g.updated_at`

// CreateGroup inserts the group and the creator's admin membership in one transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	group.ID = newID(group.ID)
	if group.CreatedAt.IsZero() {
		group.CreatedAt = nowUTC()
		group.UpdatedAt = group.CreatedAt
	}

	return s.InTx(ctx, func(tx storage.Store) error {
		ts := tx.(*SQLiteStore)
		if _, err := ts.execWrite(ctx, "insert group", `
			INSERT INTO user_groups (id, creator_id, name, description, target_amount, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.CreatorID, group.Name, group.Description, group.TargetAmount,
			toMillis(group.CreatedAt), toMillis(group.UpdatedAt),
		); err != nil {
			return err
		}
		return ts.AddMember(ctx, &models.Membership{
			GroupID:  group.ID,
			UserID:   group.CreatorID,
			Role:     models.RoleAdmin,
			JoinedAt: group.CreatedAt,
		})
	})
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM user_groups g WHERE g.id = ?`, id)
	group, err := scanGroup(row)
	if err != nil {
		return nil, scanErr("group", err)
	}
	return group, nil
}

// UpdateGroup writes the mutable attributes of a group.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	if group.UpdatedAt.IsZero() {
		group.UpdatedAt = nowUTC()
	}
	res, err := s.execWrite(ctx, "update group", `
		UPDATE user_groups SET name = ?, description = ?, target_amount = ?, updated_at = ?
		WHERE id = ?`,
		group.Name, group.Description, group.TargetAmount, toMillis(group.UpdatedAt), group.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// ListGroupsForUser lists the groups userID belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+groupColumns+`, gm.role
		FROM user_groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC, g.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return collect(rows, "group", func(row scanner) (*models.GroupSummary, error) {
		var (
			summary              models.GroupSummary
			target               decimal.NullDecimal
			createdAt, updatedAt int64
		)
		if err := row.Scan(&summary.ID, &summary.CreatorID, &summary.Name, &summary.Description,
			&target, &createdAt, &updatedAt, &summary.Role); err != nil {
			return nil, err
		}
		summary.TargetAmount = target
		summary.CreatedAt = fromMillis(createdAt)
		summary.UpdatedAt = fromMillis(updatedAt)
		return &summary, nil
	})
}

// AddMember inserts a membership.
func (s *SQLiteStore) AddMember(ctx context.Context, m *models.Membership) error {
	if m.JoinedAt.IsZero() {
		m.JoinedAt = nowUTC()
	}
	_, err := s.execWrite(ctx, "add member", `
		INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		m.GroupID, m.UserID, m.Role, toMillis(m.JoinedAt),
	)
	return err
}

// RemoveMember deletes a membership.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := s.execWrite(ctx, "remove member",
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// GetMembership reads one membership row.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	var (
		m        models.Membership
		joinedAt int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT group_id, user_id, role, joined_at FROM group_members
		WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&m.GroupID, &m.UserID, &m.Role, &joinedAt)
	if err != nil {
		return nil, scanErr("membership", err)
	}
	m.JoinedAt = fromMillis(joinedAt)
	return &m, nil
}

// ListMembers lists a group's members with their names, in join order.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at, u.name, u.email
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at, gm.rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return collect(rows, "member", func(row scanner) (*models.Membership, error) {
		var (
			m        models.Membership
			joinedAt int64
		)
		if err := row.Scan(&m.GroupID, &m.UserID, &m.Role, &joinedAt, &m.UserName, &m.UserEmail); err != nil {
			return nil, err
		}
		m.JoinedAt = fromMillis(joinedAt)
		return &m, nil
	})
}

func scanGroup(row scanner) (*models.Group, error) {
	var (
		g                    models.Group
		createdAt, updatedAt int64
	)
	if err := row.Scan(&g.ID, &g.CreatorID, &g.Name, &g.Description, &g.TargetAmount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return &g, nil
}
