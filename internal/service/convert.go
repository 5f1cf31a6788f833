package service

import (
	"time"

	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:           g.ID,
		CreatorID:    g.CreatorID,
		Name:         g.Name,
		Description:  g.Description,
		TargetAmount: g.TargetAmount,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
	}
}

func toAPIMember(m *models.Membership) *api.Member {
	return &api.Member{
		UserID:   m.UserID,
		Name:     m.UserName,
		Email:    m.UserEmail,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt,
	}
}

func toAPIInvitation(inv *models.Invitation) *api.Invitation {
	return &api.Invitation{
		ID:          inv.ID,
		GroupID:     inv.GroupID,
		GroupName:   inv.GroupName,
		InviterID:   inv.InviterID,
		InviterName: inv.InviterName,
		InviteeID:   inv.InviteeID,
		Status:      string(inv.Status),
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func toAPIModification(m *models.Modification) *api.Modification {
	out := &api.Modification{
		ID:         m.ID,
		GroupID:    m.GroupID,
		ProposerID: m.ProposerID,
		Type:       string(m.Change.Kind()),
		OldValue:   m.OldValue,
		NewValue:   m.Change.Value(),
		Status:     string(m.Status),
		CreatedAt:  m.CreatedAt,
	}
	if !m.ResolvedAt.IsZero() {
		resolved := m.ResolvedAt
		out.ResolvedAt = &resolved
	}
	for _, a := range m.Approvals {
		out.Approvals = append(out.Approvals, &api.Approval{
			UserID:    a.UserID,
			Approved:  a.Approved,
			UpdatedAt: a.UpdatedAt,
		})
	}
	return out
}

func toAPIModifications(list []*models.Modification) []*api.Modification {
	out := make([]*api.Modification, len(list))
	for i, m := range list {
		out[i] = toAPIModification(m)
	}
	return out
}

func toAPICategory(c *models.Category) *api.Category {
	return &api.Category{
		ID:        c.ID,
		Name:      c.Name,
		Type:      string(c.Type),
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
	}
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	return &api.Transaction{
		ID:            t.ID,
		UserID:        t.UserID,
		CategoryID:    t.CategoryID,
		CategoryName:  t.CategoryName,
		CategoryColor: t.CategoryColor,
		Amount:        t.Amount,
		Date:          t.Date.Format(models.DateLayout),
		Description:   t.Description,
		Type:          string(t.Type),
		OwnerType:     string(t.OwnerType),
		OwnerID:       t.OwnerID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toAPINotification(n *models.Notification) *api.Notification {
	return &api.Notification{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// parseDate reads a YYYY-MM-DD date. An empty string is the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, invalidArgument(field + " must be a date in YYYY-MM-DD form")
	}
	return d, nil
}
