package groups

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/internal/storage"
	"github.com/phobhub/phobhub/internal/telemetry"
)

var changeLabels = map[models.ChangeKind]string{
	models.ChangeTargetAmount: "target amount",
	models.ChangeName:         "name",
	models.ChangeDescription:  "description",
}

// ProposeModification opens a proposal to change one attribute of groupID
// and notifies every other member. In a group with no other members the
// change is applied at once.
func (s *Service) ProposeModification(ctx context.Context, groupID, proposerID string, kind models.ChangeKind, newValue string) (_ *models.Modification, err error) {
	ctx, span := tracer.Start(ctx, "groups.ProposeModification", trace.WithAttributes(
		attribute.String("group.id", groupID),
		attribute.String("user.id", proposerID),
		attribute.String("modification.kind", string(kind)),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := requireMember(ctx, s.store, groupID, proposerID); err != nil {
		return nil, err
	}

	change, err := models.ParseChange(kind, newValue)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid modification", err)
	}

	var (
		mod    *models.Modification
		group  *models.Group
		others []string
	)
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		group, err = tx.GetGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("read group: %w", err)
		}

		mod = &models.Modification{
			GroupID:    groupID,
			ProposerID: proposerID,
			Change:     change,
			OldValue:   change.Current(group),
			Status:     models.ModificationPending,
			CreatedAt:  s.clock(),
		}
		if err := tx.CreateModification(ctx, mod); err != nil {
			return fmt.Errorf("create modification: %w", err)
		}

		others, err = membersExcept(ctx, tx, groupID, proposerID)
		if err != nil {
			return err
		}
		if len(others) == 0 {
			return s.evaluate(ctx, tx, mod, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "modification proposed",
		"group_id", groupID,
		"modification_id", mod.ID,
		"kind", kind,
		"status", mod.Status,
	)

	proposerName := "A member"
	if u, err := s.store.GetUserByID(ctx, proposerID); err == nil {
		proposerName = u.Name
	}
	s.notifyAll(ctx, others, notifications.Message{
		Type:  models.NotificationModificationProposed,
		Title: "Modification proposed",
		Body:  fmt.Sprintf("%s proposed changing the %s of %q", proposerName, changeLabels[kind], group.Name),
		Data: map[string]any{
			"groupId":        groupID,
			"modificationId": mod.ID,
		},
	})
	return mod, nil
}

// RespondToModification records userID's vote on a pending modification and
// resolves it when the vote settles the outcome: the change is applied once
// every member other than the proposer has approved, and any rejection
// rejects it. The returned modification carries its status after the vote
// and its current approvals.
//
// The read, the vote and the evaluation run as one storage transaction, so
// concurrent votes on the same modification resolve it at most once.
func (s *Service) RespondToModification(ctx context.Context, modificationID, userID string, approve bool) (_ *models.Modification, err error) {
	ctx, span := tracer.Start(ctx, "groups.RespondToModification", trace.WithAttributes(
		attribute.String("modification.id", modificationID),
		attribute.String("user.id", userID),
		attribute.Bool("approve", approve),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	var mod *models.Modification
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		mod, err = tx.GetModification(ctx, modificationID)
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeModificationNotFound, "modification not found")
		}
		if err != nil {
			return fmt.Errorf("read modification: %w", err)
		}
		if mod.Status != models.ModificationPending {
			return alreadyProcessed("modification")
		}
		if err := requireMember(ctx, tx, mod.GroupID, userID); err != nil {
			return err
		}

		vote := &models.Approval{
			ModificationID: mod.ID,
			UserID:         userID,
			Approved:       approve,
			UpdatedAt:      s.clock(),
		}
		updated, err := tx.UpdateApproval(ctx, vote)
		if err != nil {
			return fmt.Errorf("update vote: %w", err)
		}
		if !updated {
			if err := tx.InsertApproval(ctx, vote); err != nil {
				return fmt.Errorf("insert vote: %w", err)
			}
		}

		if err := s.evaluate(ctx, tx, mod, !approve); err != nil {
			return err
		}

		mod.Approvals, err = listApprovals(ctx, tx, mod.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "modification vote recorded",
		"modification_id", mod.ID,
		"group_id", mod.GroupID,
		"user_id", userID,
		"approve", approve,
		"status", mod.Status,
	)
	return mod, nil
}

// evaluate applies unanimity to mod inside tx. Let M be the group's current
// members other than the proposer and A those members of M with an approving
// vote. When |A| == |M| the change is written to the group and mod becomes
// approved; otherwise a veto rejects it; otherwise it stays pending. Votes
// from users no longer in M do not count.
func (s *Service) evaluate(ctx context.Context, tx storage.Store, mod *models.Modification, veto bool) error {
	others, err := membersExcept(ctx, tx, mod.GroupID, mod.ProposerID)
	if err != nil {
		return err
	}
	votes, err := tx.ListApprovals(ctx, mod.ID)
	if err != nil {
		return fmt.Errorf("list votes: %w", err)
	}

	eligible := make(map[string]bool, len(others))
	for _, id := range others {
		eligible[id] = true
	}
	approvals := 0
	for _, v := range votes {
		if v.Approved && eligible[v.UserID] {
			approvals++
		}
	}

	switch {
	case approvals == len(others):
		group, err := tx.GetGroup(ctx, mod.GroupID)
		if err != nil {
			return fmt.Errorf("read group: %w", err)
		}
		mod.Change.Apply(group)
		group.UpdatedAt = s.clock()
		if err := tx.UpdateGroup(ctx, group); err != nil {
			return fmt.Errorf("apply modification: %w", err)
		}
		return s.resolve(ctx, tx, mod, models.ModificationApproved)
	case veto:
		return s.resolve(ctx, tx, mod, models.ModificationRejected)
	default:
		return nil
	}
}

func (s *Service) resolve(ctx context.Context, tx storage.Store, mod *models.Modification, status models.ModificationStatus) error {
	moved, err := tx.ResolveModification(ctx, mod.ID, status)
	if err != nil {
		return fmt.Errorf("resolve modification: %w", err)
	}
	if !moved {
		return alreadyProcessed("modification")
	}
	mod.Status = status
	mod.ResolvedAt = s.clock()
	return nil
}

func listApprovals(ctx context.Context, st storage.ModificationStore, modificationID string) ([]models.Approval, error) {
	votes, err := st.ListApprovals(ctx, modificationID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	out := make([]models.Approval, len(votes))
	for i, v := range votes {
		out[i] = *v
	}
	return out, nil
}

// GetModification returns a modification with its votes. Members of other
// groups get a not-found answer.
func (s *Service) GetModification(ctx context.Context, modificationID, userID string) (*models.Modification, error) {
	mod, err := s.store.GetModification(ctx, modificationID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeModificationNotFound, "modification not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read modification: %w", err)
	}

	ok, err := isMember(ctx, s.store, mod.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.CodeModificationNotFound, "modification not found")
	}

	mod.Approvals, err = listApprovals(ctx, s.store, mod.ID)
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// ListModifications lists groupID's modifications, newest first, optionally
// only those with status.
func (s *Service) ListModifications(ctx context.Context, groupID, userID string, status models.ModificationStatus) ([]*models.Modification, error) {
	if err := requireMember(ctx, s.store, groupID, userID); err != nil {
		return nil, err
	}
	list, err := s.store.ListModifications(ctx, groupID, status)
	if err != nil {
		return nil, fmt.Errorf("list modifications: %w", err)
	}
	return list, nil
}
