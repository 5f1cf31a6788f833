package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/auth"
	"github.com/phobhub/phobhub/internal/events"
	"github.com/phobhub/phobhub/internal/groups"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/telemetry"
	"github.com/phobhub/phobhub/pkg/api"
)

// GroupService implements the GroupService procedures: group lifecycle,
// invitations and unanimous modifications.
type GroupService struct {
	groups  *groups.Service
	events  events.Publisher
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewGroupService creates a GroupService. metrics may be nil; a nil
// publisher drops change events.
func NewGroupService(svc *groups.Service, publisher events.Publisher, metrics *telemetry.Metrics, logger *slog.Logger) *GroupService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &GroupService{groups: svc, events: publisher, metrics: metrics, logger: logger}
}

// CreateGroup creates a group with the caller as admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "CreateGroup request received", "user_id", userID, "name", req.Msg.Name)

	group, err := s.groups.CreateGroup(ctx, userID, groups.NewGroup{
		Name:         req.Msg.Name,
		Description:  req.Msg.Description,
		TargetAmount: req.Msg.TargetAmount,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreateGroup", err)
	}

	s.events.Publish(ctx, events.Event{Name: events.GroupCreated, ActorID: userID, GroupID: group.ID})

	out := toAPIGroup(group)
	out.Role = string(models.RoleAdmin)
	return connect.NewResponse(&api.GroupResponse{Group: out}), nil
}

// ListGroups lists the caller's groups with the caller's role in each.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.groups.ListGroups(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListGroups", err)
	}

	out := make([]*api.Group, len(list))
	for i, summary := range list {
		g := summary.Group
		out[i] = toAPIGroup(&g)
		out[i].Role = string(summary.Role)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// GetGroup returns a group and its members to a member.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.groups.GetGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetGroup", err)
	}

	out := toAPIGroup(detail.Group)
	members := make([]*api.Member, len(detail.Members))
	for i, m := range detail.Members {
		members[i] = toAPIMember(m)
		if m.UserID == userID {
			out.Role = string(m.Role)
		}
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: out, Members: members}), nil
}

// LeaveGroup removes the caller from a group.
func (s *GroupService) LeaveGroup(ctx context.Context, req *connect.Request[api.LeaveGroupRequest]) (*connect.Response[api.LeaveGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "LeaveGroup request received", "user_id", userID, "group_id", req.Msg.GroupID)

	resolved, err := s.groups.LeaveGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "LeaveGroup", err)
	}

	s.events.Publish(ctx, events.Event{Name: events.GroupMemberLeft, ActorID: userID, GroupID: req.Msg.GroupID})
	for _, mod := range resolved {
		s.events.Publish(ctx, events.Event{
			Name:           events.GroupModificationResponse,
			ActorID:        userID,
			GroupID:        mod.GroupID,
			ModificationID: mod.ID,
			Status:         string(mod.Status),
		})
	}
	return connect.NewResponse(&api.LeaveGroupResponse{Resolved: toAPIModifications(resolved)}), nil
}

// Invite invites a registered user, by email, into a group.
func (s *GroupService) Invite(ctx context.Context, req *connect.Request[api.InviteRequest]) (*connect.Response[api.InvitationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Invite request received", "user_id", userID, "group_id", req.Msg.GroupID)

	inv, err := s.groups.Invite(ctx, req.Msg.GroupID, userID, auth.NormalizeEmail(req.Msg.Email))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "Invite", err)
	}

	s.events.Publish(ctx, events.Event{
		Name:         events.GroupInvitation,
		ActorID:      userID,
		GroupID:      inv.GroupID,
		InvitationID: inv.ID,
		Status:       string(inv.Status),
	})
	return connect.NewResponse(&api.InvitationResponse{Invitation: toAPIInvitation(inv)}), nil
}

// RespondToInvitation accepts or rejects one of the caller's invitations.
func (s *GroupService) RespondToInvitation(ctx context.Context, req *connect.Request[api.RespondToInvitationRequest]) (*connect.Response[api.InvitationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.groups.RespondToInvitation(ctx, req.Msg.InvitationID, userID, req.Msg.Accept)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "RespondToInvitation", err)
	}

	s.events.Publish(ctx, events.Event{
		Name:         events.GroupInvitationResponse,
		ActorID:      userID,
		GroupID:      inv.GroupID,
		InvitationID: inv.ID,
		Status:       string(inv.Status),
	})
	return connect.NewResponse(&api.InvitationResponse{Invitation: toAPIInvitation(inv)}), nil
}

// ListInvitations lists the caller's pending invitations.
func (s *GroupService) ListInvitations(ctx context.Context, req *connect.Request[api.Empty]) (*connect.Response[api.ListInvitationsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.groups.ListInvitations(ctx, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListInvitations", err)
	}

	out := make([]*api.Invitation, len(list))
	for i, inv := range list {
		out[i] = toAPIInvitation(inv)
	}
	return connect.NewResponse(&api.ListInvitationsResponse{Invitations: out}), nil
}

// ProposeModification proposes a change to a group attribute.
func (s *GroupService) ProposeModification(ctx context.Context, req *connect.Request[api.ProposeModificationRequest]) (*connect.Response[api.ModificationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "ProposeModification request received",
		"user_id", userID,
		"group_id", req.Msg.GroupID,
		"modification_type", req.Msg.Type,
	)

	mod, err := s.groups.ProposeModification(ctx, req.Msg.GroupID, userID, models.ChangeKind(req.Msg.Type), req.Msg.NewValue)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ProposeModification", err)
	}

	s.events.Publish(ctx, events.Event{
		Name:           events.GroupModificationProposed,
		ActorID:        userID,
		GroupID:        mod.GroupID,
		ModificationID: mod.ID,
		Status:         string(mod.Status),
	})
	return connect.NewResponse(&api.ModificationResponse{Modification: toAPIModification(mod)}), nil
}

// RespondToModification records the caller's vote.
func (s *GroupService) RespondToModification(ctx context.Context, req *connect.Request[api.RespondToModificationRequest]) (*connect.Response[api.RespondToModificationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	mod, err := s.groups.RespondToModification(ctx, req.Msg.ModificationID, userID, req.Msg.Approve)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "RespondToModification", err)
	}

	if s.metrics != nil {
		s.metrics.ModificationVotes.WithLabelValues(string(mod.Status)).Inc()
	}
	s.events.Publish(ctx, events.Event{
		Name:           events.GroupModificationResponse,
		ActorID:        userID,
		GroupID:        mod.GroupID,
		ModificationID: mod.ID,
		Status:         string(mod.Status),
	})
	return connect.NewResponse(&api.RespondToModificationResponse{
		Approved:     req.Msg.Approve,
		Modification: toAPIModification(mod),
	}), nil
}

// GetModification returns a modification and its votes to a group member.
func (s *GroupService) GetModification(ctx context.Context, req *connect.Request[api.GetModificationRequest]) (*connect.Response[api.ModificationResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	mod, err := s.groups.GetModification(ctx, req.Msg.ModificationID, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetModification", err)
	}
	return connect.NewResponse(&api.ModificationResponse{Modification: toAPIModification(mod)}), nil
}

// ListModifications lists a group's modifications, optionally by status.
func (s *GroupService) ListModifications(ctx context.Context, req *connect.Request[api.ListModificationsRequest]) (*connect.Response[api.ListModificationsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	status := models.ModificationStatus(req.Msg.Status)
	switch status {
	case "", models.ModificationPending, models.ModificationApproved, models.ModificationRejected:
	default:
		return nil, invalidArgument("status must be pending, approved or rejected")
	}

	list, err := s.groups.ListModifications(ctx, req.Msg.GroupID, userID, status)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListModifications", err)
	}
	return connect.NewResponse(&api.ListModificationsResponse{Modifications: toAPIModifications(list)}), nil
}
