package groups

import (
	"context"
	"errors"
	"fmt"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

// Membership answers are read from the store on every call and never cached:
// a user removed from a group loses access on the next request.

// IsMember reports whether userID currently belongs to groupID.
func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return isMember(ctx, s.store, groupID, userID)
}

// RoleOf returns userID's role in groupID, or false when not a member.
func (s *Service) RoleOf(ctx context.Context, groupID, userID string) (models.Role, bool, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read membership: %w", err)
	}
	return m.Role, true, nil
}

// MembersExcept returns the current members of groupID other than userID.
func (s *Service) MembersExcept(ctx context.Context, groupID, userID string) ([]string, error) {
	return membersExcept(ctx, s.store, groupID, userID)
}

func isMember(ctx context.Context, st storage.GroupStore, groupID, userID string) (bool, error) {
	_, err := st.GetMembership(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read membership: %w", err)
	}
	return true, nil
}

func requireMember(ctx context.Context, st storage.GroupStore, groupID, userID string) error {
	ok, err := isMember(ctx, st, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.CodeNotMember, "you are not a member of this group")
	}
	return nil
}

func membersExcept(ctx context.Context, st storage.GroupStore, groupID, userID string) ([]string, error) {
	members, err := st.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}
