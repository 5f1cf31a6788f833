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

// Invite creates a pending invitation for the registered user with
// inviteeEmail and notifies them.
func (s *Service) Invite(ctx context.Context, groupID, inviterID, inviteeEmail string) (_ *models.Invitation, err error) {
	ctx, span := tracer.Start(ctx, "groups.Invite", trace.WithAttributes(
		attribute.String("group.id", groupID),
		attribute.String("user.id", inviterID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := requireMember(ctx, s.store, groupID, inviterID); err != nil {
		return nil, err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeUserNotFound, "no user is registered with that email")
	}
	if err != nil {
		return nil, fmt.Errorf("look up invitee: %w", err)
	}

	already, err := isMember(ctx, s.store, groupID, invitee.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperrors.New(apperrors.CodeAlreadyMember, "user is already a member of this group")
	}

	if _, err := s.store.FindPendingInvitation(ctx, groupID, invitee.ID); err == nil {
		return nil, duplicateInvitation()
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("look up pending invitation: %w", err)
	}

	now := s.clock()
	inv := &models.Invitation{
		GroupID:   groupID,
		InviterID: inviterID,
		InviteeID: invitee.ID,
		Status:    models.InvitationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		// A concurrent invite can win between the lookup and the insert.
		if errors.Is(err, storage.ErrConflict) {
			return nil, duplicateInvitation()
		}
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.logger.InfoContext(ctx, "invitation created",
		"group_id", groupID,
		"invitation_id", inv.ID,
		"inviter_id", inviterID,
		"invitee_id", invitee.ID,
	)

	s.notifyInvitee(ctx, inv)
	return inv, nil
}

func duplicateInvitation() error {
	return apperrors.New(apperrors.CodeDuplicatePendingInvitation, "a pending invitation for this user already exists")
}

func (s *Service) notifyInvitee(ctx context.Context, inv *models.Invitation) {
	inviterName, groupName := "Someone", "a group"
	if u, err := s.store.GetUserByID(ctx, inv.InviterID); err == nil {
		inviterName = u.Name
	}
	if g, err := s.store.GetGroup(ctx, inv.GroupID); err == nil {
		groupName = g.Name
	}

	s.notifyAll(ctx, []string{inv.InviteeID}, notifications.Message{
		Type:  models.NotificationGroupInvitation,
		Title: "Group invitation",
		Body:  fmt.Sprintf("%s invited you to the group %q", inviterName, groupName),
		Data: map[string]any{
			"groupId":      inv.GroupID,
			"invitationId": inv.ID,
		},
	})
}

// RespondToInvitation accepts or rejects a pending invitation addressed to
// userID. Accepting adds userID to the group as a member. An invitation
// addressed to someone else is reported as not found.
func (s *Service) RespondToInvitation(ctx context.Context, invitationID, userID string, accept bool) (_ *models.Invitation, err error) {
	ctx, span := tracer.Start(ctx, "groups.RespondToInvitation", trace.WithAttributes(
		attribute.String("invitation.id", invitationID),
		attribute.String("user.id", userID),
		attribute.Bool("accept", accept),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	var inv *models.Invitation
	err = s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		inv, err = tx.GetInvitation(ctx, invitationID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && inv.InviteeID != userID) {
			return apperrors.New(apperrors.CodeInvitationNotFound, "invitation not found")
		}
		if err != nil {
			return fmt.Errorf("read invitation: %w", err)
		}
		if inv.Status != models.InvitationPending {
			return alreadyProcessed("invitation")
		}

		status := models.InvitationRejected
		if accept {
			status = models.InvitationAccepted
		}
		moved, err := tx.ResolveInvitation(ctx, inv.ID, status)
		if err != nil {
			return fmt.Errorf("resolve invitation: %w", err)
		}
		if !moved {
			return alreadyProcessed("invitation")
		}
		inv.Status = status

		if !accept {
			return nil
		}
		err = tx.AddMember(ctx, &models.Membership{
			GroupID:  inv.GroupID,
			UserID:   userID,
			Role:     models.RoleMember,
			JoinedAt: s.clock(),
		})
		if errors.Is(err, storage.ErrConflict) {
			return apperrors.New(apperrors.CodeAlreadyMember, "you are already a member of this group")
		}
		if err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "invitation resolved",
		"invitation_id", inv.ID,
		"group_id", inv.GroupID,
		"user_id", userID,
		"status", inv.Status,
	)
	return inv, nil
}

// ListInvitations returns userID's pending invitations, newest first.
func (s *Service) ListInvitations(ctx context.Context, userID string) ([]*models.Invitation, error) {
	list, err := s.store.ListPendingInvitations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return list, nil
}

func alreadyProcessed(what string) error {
	return apperrors.Newf(apperrors.CodeAlreadyProcessed, "%s has already been resolved", what)
}
