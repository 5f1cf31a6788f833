package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
	"github.com/phobhub/phobhub/internal/telemetry"
)

// NewGroup holds the attributes of a group being created.
type NewGroup struct {
	Name         string
	Description  string
	TargetAmount decimal.NullDecimal
}

// Detail is a group with its members.
type Detail struct {
	Group   *models.Group
	Members []*models.Membership
}

// CreateGroup creates a group with creatorID as its admin.
func (s *Service) CreateGroup(ctx context.Context, creatorID string, in NewGroup) (_ *models.Group, err error) {
	ctx, span := tracer.Start(ctx, "groups.CreateGroup", trace.WithAttributes(attribute.String("user.id", creatorID)))
	defer func() { telemetry.EndSpan(span, err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "group name is required")
	}
	if in.TargetAmount.Valid && in.TargetAmount.Decimal.IsNegative() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "target amount must not be negative")
	}

	now := s.clock()
	group := &models.Group{
		CreatorID:    creatorID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		TargetAmount: in.TargetAmount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.logger.InfoContext(ctx, "group created", "group_id", group.ID, "creator_id", creatorID)
	return group, nil
}

// ListGroups returns the groups userID belongs to, newest first.
func (s *Service) ListGroups(ctx context.Context, userID string) ([]*models.GroupSummary, error) {
	list, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return list, nil
}

// GetGroup returns a group and its members. Non-members get a not-found answer.
func (s *Service) GetGroup(ctx context.Context, groupID, userID string) (*Detail, error) {
	ok, err := isMember(ctx, s.store, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeGroupNotFound, "group not found")
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeGroupNotFound, "group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read group: %w", err)
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return &Detail{Group: group, Members: members}, nil
}

// LeaveGroup removes userID from groupID. The leaver's pending proposals are
// rejected and their votes on other pending proposals are withdrawn; the
// remaining proposals are then re-evaluated against the smaller membership,
// which can approve them. The returned modifications are those resolved by
// leaving. The last member cannot leave.
func (s *Service) LeaveGroup(ctx context.Context, groupID, userID string) (_ []*models.Modification, err error) {
	ctx, span := tracer.Start(ctx, "groups.LeaveGroup", trace.WithAttributes(
		attribute.String("group.id", groupID),
		attribute.String("user.id", userID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	var resolved []*models.Modification
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		if err := requireMember(ctx, tx, groupID, userID); err != nil {
			return err
		}
		others, err := membersExcept(ctx, tx, groupID, userID)
		if err != nil {
			return err
		}
		if len(others) == 0 {
			return apperrors.New(apperrors.CodeLastMember, "the last member cannot leave the group")
		}

		if err := tx.RemoveMember(ctx, groupID, userID); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}

		pending, err := tx.ListModifications(ctx, groupID, models.ModificationPending)
		if err != nil {
			return fmt.Errorf("list pending modifications: %w", err)
		}
		for _, mod := range pending {
			if mod.ProposerID == userID {
				if err := s.resolve(ctx, tx, mod, models.ModificationRejected); err != nil {
					return err
				}
				resolved = append(resolved, mod)
				continue
			}
			if err := tx.DeleteApproval(ctx, mod.ID, userID); err != nil {
				return fmt.Errorf("withdraw vote: %w", err)
			}
			if err := s.evaluate(ctx, tx, mod, false); err != nil {
				return err
			}
			if mod.Status != models.ModificationPending {
				resolved = append(resolved, mod)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "member left group",
		"group_id", groupID,
		"user_id", userID,
		"resolved_modifications", len(resolved),
	)
	return resolved, nil
}
