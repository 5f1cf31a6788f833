// Package memory provides an in-process implementation of storage.Store,
// used by workflow tests and the seed tool's dry-run mode.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type state struct {
	seq           int64
	order         map[string]int64
	users         map[string]*models.User
	categories    map[string]*models.Category
	groups        map[string]*models.Group
	members       map[string]map[string]*models.Membership
	invitations   map[string]*models.Invitation
	modifications map[string]*models.Modification
	approvals     map[string]map[string]*models.Approval
	transactions  map[string]*models.Transaction
	notifications map[string]*models.Notification
}

func newState() *state {
	return &state{
		order:         make(map[string]int64),
		users:         make(map[string]*models.User),
		categories:    make(map[string]*models.Category),
		groups:        make(map[string]*models.Group),
		members:       make(map[string]map[string]*models.Membership),
		invitations:   make(map[string]*models.Invitation),
		modifications: make(map[string]*models.Modification),
		approvals:     make(map[string]map[string]*models.Approval),
		transactions:  make(map[string]*models.Transaction),
		notifications: make(map[string]*models.Notification),
	}
}

func cloneMap[V any](m map[string]*V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

func cloneNested[V any](m map[string]map[string]*V) map[string]map[string]*V {
	out := make(map[string]map[string]*V, len(m))
	for k, inner := range m {
		out[k] = cloneMap(inner)
	}
	return out
}

func (st *state) clone() *state {
	order := make(map[string]int64, len(st.order))
	for k, v := range st.order {
		order[k] = v
	}
	return &state{
		seq:           st.seq,
		order:         order,
		users:         cloneMap(st.users),
		categories:    cloneMap(st.categories),
		groups:        cloneMap(st.groups),
		members:       cloneNested(st.members),
		invitations:   cloneMap(st.invitations),
		modifications: cloneMap(st.modifications),
		approvals:     cloneNested(st.approvals),
		transactions:  cloneMap(st.transactions),
		notifications: cloneMap(st.notifications),
	}
}

// stamp records insertion order under key for tie-breaking sorts.
func (st *state) stamp(key string) {
	st.seq++
	st.order[key] = st.seq
}

// Store is a mutex-guarded in-memory store. InTx works on a copy of the
// state that replaces the original only when fn succeeds.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
	now  func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState(), now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// InTx implements storage.Store.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&Store{mu: s.mu, st: snapshot, inTx: true, now: s.now}); err != nil {
		return err
	}
	*s.st = *snapshot
	return nil
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// Users

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	for _, u := range s.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return storage.ErrConflict
		}
	}
	user.ID = newID(user.ID)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
		user.UpdatedAt = user.CreatedAt
	}
	c := *user
	s.st.users[user.ID] = &c
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	defer s.lock()()
	u, ok := s.st.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	for _, u := range s.st.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	defer s.lock()()
	for _, c := range s.st.categories {
		if c.UserID == category.UserID && c.Name == category.Name && c.Type == category.Type {
			return storage.ErrConflict
		}
	}
	category.ID = newID(category.ID)
	if category.CreatedAt.IsZero() {
		category.CreatedAt = s.now().UTC()
	}
	c := *category
	s.st.categories[category.ID] = &c
	return nil
}

func (s *Store) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	defer s.lock()()
	c, ok := s.st.categories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) ListCategories(ctx context.Context, userID string, typ models.TransactionType) ([]*models.Category, error) {
	defer s.lock()()
	var out []*models.Category
	for _, c := range s.st.categories {
		if c.UserID != userID || (typ != "" && c.Type != typ) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	defer s.lock()()
	if _, ok := s.st.categories[category.ID]; !ok {
		return storage.ErrNotFound
	}
	for _, c := range s.st.categories {
		if c.ID != category.ID && c.UserID == category.UserID && c.Name == category.Name && c.Type == category.Type {
			return storage.ErrConflict
		}
	}
	c := *category
	s.st.categories[category.ID] = &c
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.st.categories[id]; !ok {
		return storage.ErrNotFound
	}
	for _, t := range s.st.transactions {
		if t.CategoryID == id {
			return storage.ErrConflict
		}
	}
	delete(s.st.categories, id)
	return nil
}

func (s *Store) CategoryInUse(ctx context.Context, id string) (bool, error) {
	defer s.lock()()
	for _, t := range s.st.transactions {
		if t.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

// Groups and memberships

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	defer s.lock()()
	if _, ok := s.st.users[group.CreatorID]; !ok {
		return storage.ErrNotFound
	}
	group.ID = newID(group.ID)
	if group.CreatedAt.IsZero() {
		group.CreatedAt = s.now().UTC()
		group.UpdatedAt = group.CreatedAt
	}
	g := *group
	s.st.groups[group.ID] = &g
	s.st.stamp(group.ID)
	s.st.members[group.ID] = map[string]*models.Membership{
		group.CreatorID: {GroupID: group.ID, UserID: group.CreatorID, Role: models.RoleAdmin, JoinedAt: group.CreatedAt},
	}
	s.st.stamp(memberKey(group.ID, group.CreatorID))
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	defer s.lock()()
	g, ok := s.st.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	defer s.lock()()
	g, ok := s.st.groups[group.ID]
	if !ok {
		return storage.ErrNotFound
	}
	g.Name = group.Name
	g.Description = group.Description
	g.TargetAmount = group.TargetAmount
	g.UpdatedAt = group.UpdatedAt
	return nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error) {
	defer s.lock()()
	var out []*models.GroupSummary
	for groupID, members := range s.st.members {
		m, ok := members[userID]
		if !ok {
			continue
		}
		out = append(out, &models.GroupSummary{Group: *s.st.groups[groupID], Role: m.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.st.order[out[i].ID] > s.st.order[out[j].ID]
	})
	return out, nil
}

func memberKey(groupID, userID string) string {
	return "member:" + groupID + ":" + userID
}

func (s *Store) AddMember(ctx context.Context, membership *models.Membership) error {
	defer s.lock()()
	if _, ok := s.st.groups[membership.GroupID]; !ok {
		return storage.ErrNotFound
	}
	members := s.st.members[membership.GroupID]
	if _, ok := members[membership.UserID]; ok {
		return storage.ErrConflict
	}
	if membership.JoinedAt.IsZero() {
		membership.JoinedAt = s.now().UTC()
	}
	m := *membership
	members[membership.UserID] = &m
	s.st.stamp(memberKey(membership.GroupID, membership.UserID))
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	defer s.lock()()
	members := s.st.members[groupID]
	if _, ok := members[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(members, userID)
	return nil
}

func (s *Store) GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	defer s.lock()()
	m, ok := s.st.members[groupID][userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *Store) ListMembers(ctx context.Context, groupID string) ([]*models.Membership, error) {
	defer s.lock()()
	var out []*models.Membership
	for _, m := range s.st.members[groupID] {
		c := *m
		if u, ok := s.st.users[m.UserID]; ok {
			c.UserName, c.UserEmail = u.Name, u.Email
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.st.order[memberKey(groupID, out[i].UserID)] < s.st.order[memberKey(groupID, out[j].UserID)]
	})
	return out, nil
}

// Invitations

func (s *Store) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	defer s.lock()()
	for _, existing := range s.st.invitations {
		if existing.GroupID == inv.GroupID && existing.InviteeID == inv.InviteeID && existing.Status == models.InvitationPending {
			return storage.ErrConflict
		}
	}
	inv.ID = newID(inv.ID)
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now().UTC()
		inv.UpdatedAt = inv.CreatedAt
	}
	c := *inv
	s.st.invitations[inv.ID] = &c
	s.st.stamp(inv.ID)
	return nil
}

func (s *Store) GetInvitation(ctx context.Context, id string) (*models.Invitation, error) {
	defer s.lock()()
	inv, ok := s.st.invitations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (s *Store) FindPendingInvitation(ctx context.Context, groupID, inviteeID string) (*models.Invitation, error) {
	defer s.lock()()
	for _, inv := range s.st.invitations {
		if inv.GroupID == groupID && inv.InviteeID == inviteeID && inv.Status == models.InvitationPending {
			c := *inv
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ResolveInvitation(ctx context.Context, id string, status models.InvitationStatus) (bool, error) {
	defer s.lock()()
	inv, ok := s.st.invitations[id]
	if !ok || inv.Status != models.InvitationPending {
		return false, nil
	}
	inv.Status = status
	inv.UpdatedAt = s.now().UTC()
	return true, nil
}

func (s *Store) ListPendingInvitations(ctx context.Context, inviteeID string) ([]*models.Invitation, error) {
	defer s.lock()()
	var out []*models.Invitation
	for _, inv := range s.st.invitations {
		if inv.InviteeID != inviteeID || inv.Status != models.InvitationPending {
			continue
		}
		c := *inv
		if g, ok := s.st.groups[inv.GroupID]; ok {
			c.GroupName = g.Name
		}
		if u, ok := s.st.users[inv.InviterID]; ok {
			c.InviterName = u.Name
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return s.st.order[out[i].ID] > s.st.order[out[j].ID] })
	return out, nil
}

// Modifications and approvals

func (s *Store) CreateModification(ctx context.Context, mod *models.Modification) error {
	defer s.lock()()
	if _, ok := s.st.groups[mod.GroupID]; !ok {
		return storage.ErrNotFound
	}
	mod.ID = newID(mod.ID)
	if mod.CreatedAt.IsZero() {
		mod.CreatedAt = s.now().UTC()
	}
	c := *mod
	c.Approvals = nil
	s.st.modifications[mod.ID] = &c
	s.st.approvals[mod.ID] = make(map[string]*models.Approval)
	s.st.stamp(mod.ID)
	return nil
}

func (s *Store) GetModification(ctx context.Context, id string) (*models.Modification, error) {
	defer s.lock()()
	m, ok := s.st.modifications[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (s *Store) ListModifications(ctx context.Context, groupID string, status models.ModificationStatus) ([]*models.Modification, error) {
	defer s.lock()()
	var out []*models.Modification
	for _, m := range s.st.modifications {
		if m.GroupID != groupID || (status != "" && m.Status != status) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return s.st.order[out[i].ID] > s.st.order[out[j].ID] })
	return out, nil
}

func (s *Store) ResolveModification(ctx context.Context, id string, status models.ModificationStatus) (bool, error) {
	defer s.lock()()
	m, ok := s.st.modifications[id]
	if !ok || m.Status != models.ModificationPending {
		return false, nil
	}
	m.Status = status
	m.ResolvedAt = s.now().UTC()
	return true, nil
}

func (s *Store) UpdateApproval(ctx context.Context, approval *models.Approval) (bool, error) {
	defer s.lock()()
	a, ok := s.st.approvals[approval.ModificationID][approval.UserID]
	if !ok {
		return false, nil
	}
	a.Approved = approval.Approved
	a.UpdatedAt = approval.UpdatedAt
	return true, nil
}

func (s *Store) InsertApproval(ctx context.Context, approval *models.Approval) error {
	defer s.lock()()
	votes, ok := s.st.approvals[approval.ModificationID]
	if !ok {
		return storage.ErrNotFound
	}
	if _, exists := votes[approval.UserID]; exists {
		return storage.ErrConflict
	}
	a := *approval
	votes[approval.UserID] = &a
	s.st.stamp("approval:" + approval.ModificationID + ":" + approval.UserID)
	return nil
}

func (s *Store) DeleteApproval(ctx context.Context, modificationID, userID string) error {
	defer s.lock()()
	delete(s.st.approvals[modificationID], userID)
	return nil
}

func (s *Store) ListApprovals(ctx context.Context, modificationID string) ([]*models.Approval, error) {
	defer s.lock()()
	var out []*models.Approval
	for _, a := range s.st.approvals[modificationID] {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.st.order["approval:"+modificationID+":"+out[i].UserID] < s.st.order["approval:"+modificationID+":"+out[j].UserID]
	})
	return out, nil
}

// Transactions

func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	defer s.lock()()
	if _, ok := s.st.categories[txn.CategoryID]; !ok {
		return storage.ErrNotFound
	}
	txn.ID = newID(txn.ID)
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = s.now().UTC()
		txn.UpdatedAt = txn.CreatedAt
	}
	c := *txn
	s.st.transactions[txn.ID] = &c
	s.st.stamp(txn.ID)
	return nil
}

func (s *Store) joinCategory(t *models.Transaction) *models.Transaction {
	c := *t
	if cat, ok := s.st.categories[t.CategoryID]; ok {
		c.CategoryName, c.CategoryColor = cat.Name, cat.Color
	}
	return &c
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	defer s.lock()()
	t, ok := s.st.transactions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.joinCategory(t), nil
}

func (s *Store) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	defer s.lock()()
	if _, ok := s.st.transactions[txn.ID]; !ok {
		return storage.ErrNotFound
	}
	c := *txn
	s.st.transactions[txn.ID] = &c
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.st.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.st.transactions, id)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]*models.Transaction, error) {
	defer s.lock()()
	var out []*models.Transaction
	for _, t := range s.st.transactions {
		if !s.visible(t, f.ViewerID) || !matches(t, f) {
			continue
		}
		out = append(out, s.joinCategory(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.st.order[out[i].ID] > s.st.order[out[j].ID]
	})
	return out, nil
}

func (s *Store) visible(t *models.Transaction, viewerID string) bool {
	switch t.OwnerType {
	case models.OwnerUser:
		return t.OwnerID == viewerID
	case models.OwnerGroup:
		_, ok := s.st.members[t.OwnerID][viewerID]
		return ok
	}
	return false
}

func matches(t *models.Transaction, f models.TransactionFilter) bool {
	if f.OwnerType != "" && (t.OwnerType != f.OwnerType || t.OwnerID != f.OwnerID) {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && t.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	defer s.lock()()
	n.ID = newID(n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	c := *n
	s.st.notifications[n.ID] = &c
	s.st.stamp(n.ID)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	defer s.lock()()
	var out []*models.Notification
	for _, n := range s.st.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return s.st.order[out[i].ID] > s.st.order[out[j].ID] })
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	defer s.lock()()
	n, ok := s.st.notifications[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	defer s.lock()()
	count := 0
	for _, n := range s.st.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}
