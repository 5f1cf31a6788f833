package groups

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/notifications"
	"github.com/phobhub/phobhub/internal/storage/memory"
)

type sentNotification struct {
	userID string
	msg    notifications.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, userID string, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{userID: userID, msg: msg})
	return nil
}

func (n *recordingNotifier) to(userID string) []notifications.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifications.Message
	for _, s := range n.sent {
		if s.userID == userID {
			out = append(out, s.msg)
		}
	}
	return out
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    store,
		notifier: notifier,
		svc:      NewService(store, notifier, WithClock(func() time.Time { return fixed })),
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	u := models.NewUser(strings.ToLower(name)+"@example.com", name, "hash")
	if err := f.store.CreateUser(f.ctx, u); err != nil {
		f.t.Fatalf("CreateUser(%s) failed: %v", name, err)
	}
	return u
}

// group creates a group owned by creator with members added directly.
func (f *fixture) group(name string, creator *models.User, members ...*models.User) *models.Group {
	f.t.Helper()
	g, err := f.svc.CreateGroup(f.ctx, creator.ID, NewGroup{Name: name})
	if err != nil {
		f.t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, m := range members {
		if err := f.store.AddMember(f.ctx, &models.Membership{GroupID: g.ID, UserID: m.ID, Role: models.RoleMember}); err != nil {
			f.t.Fatalf("AddMember failed: %v", err)
		}
	}
	return g
}

func (f *fixture) reload(groupID string) *models.Group {
	f.t.Helper()
	g, err := f.store.GetGroup(f.ctx, groupID)
	if err != nil {
		f.t.Fatalf("GetGroup failed: %v", err)
	}
	return g
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
	g := f.group("Flat", alice)

	t.Run("non-member cannot invite", func(t *testing.T) {
		_, err := f.svc.Invite(f.ctx, g.ID, carol.ID, bob.Email)
		expectCode(t, err, apperrors.CodeNotMember)
		if _, err := f.store.FindPendingInvitation(f.ctx, g.ID, bob.ID); err == nil {
			t.Error("no invitation should have been created")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Invite(f.ctx, g.ID, alice.ID, "nobody@example.com")
		expectCode(t, err, apperrors.CodeUserNotFound)
	})

	t.Run("existing member", func(t *testing.T) {
		_, err := f.svc.Invite(f.ctx, g.ID, alice.ID, alice.Email)
		expectCode(t, err, apperrors.CodeAlreadyMember)
	})

	t.Run("creates pending invitation and notifies invitee", func(t *testing.T) {
		inv, err := f.svc.Invite(f.ctx, g.ID, alice.ID, bob.Email)
		if err != nil {
			t.Fatalf("Invite failed: %v", err)
		}
		if inv.Status != models.InvitationPending || inv.InviteeID != bob.ID {
			t.Errorf("unexpected invitation: %+v", inv)
		}

		sent := f.notifier.to(bob.ID)
		if len(sent) != 1 {
			t.Fatalf("expected 1 notification for bob, got %d", len(sent))
		}
		if sent[0].Type != models.NotificationGroupInvitation {
			t.Errorf("type: got %s", sent[0].Type)
		}
		if sent[0].Body != `Alice invited you to the group "Flat"` {
			t.Errorf("body: got %q", sent[0].Body)
		}
		if sent[0].Data["invitationId"] != inv.ID || sent[0].Data["groupId"] != g.ID {
			t.Errorf("data: got %v", sent[0].Data)
		}
	})

	t.Run("second pending invitation is a duplicate", func(t *testing.T) {
		_, err := f.svc.Invite(f.ctx, g.ID, alice.ID, bob.Email)
		expectCode(t, err, apperrors.CodeDuplicatePendingInvitation)
	})
}

func TestRespondToInvitation(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
	g := f.group("Flat", alice)

	inv, err := f.svc.Invite(f.ctx, g.ID, alice.ID, bob.Email)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	t.Run("someone else's invitation is not found", func(t *testing.T) {
		_, err := f.svc.RespondToInvitation(f.ctx, inv.ID, carol.ID, true)
		expectCode(t, err, apperrors.CodeInvitationNotFound)
	})

	t.Run("accept adds membership", func(t *testing.T) {
		got, err := f.svc.RespondToInvitation(f.ctx, inv.ID, bob.ID, true)
		if err != nil {
			t.Fatalf("RespondToInvitation failed: %v", err)
		}
		if got.Status != models.InvitationAccepted {
			t.Errorf("status: got %s", got.Status)
		}
		role, ok, err := f.svc.RoleOf(f.ctx, g.ID, bob.ID)
		if err != nil || !ok || role != models.RoleMember {
			t.Errorf("RoleOf = %s, %v, %v", role, ok, err)
		}
	})

	t.Run("second response is already processed", func(t *testing.T) {
		_, err := f.svc.RespondToInvitation(f.ctx, inv.ID, bob.ID, false)
		expectCode(t, err, apperrors.CodeAlreadyProcessed)
	})

	t.Run("reject leaves membership untouched", func(t *testing.T) {
		inv, err := f.svc.Invite(f.ctx, g.ID, bob.ID, carol.Email)
		if err != nil {
			t.Fatalf("Invite failed: %v", err)
		}
		got, err := f.svc.RespondToInvitation(f.ctx, inv.ID, carol.ID, false)
		if err != nil {
			t.Fatalf("RespondToInvitation failed: %v", err)
		}
		if got.Status != models.InvitationRejected {
			t.Errorf("status: got %s", got.Status)
		}
		if ok, _ := f.svc.IsMember(f.ctx, g.ID, carol.ID); ok {
			t.Error("carol should not be a member")
		}

		// A rejected invitation does not block a new one.
		if _, err := f.svc.Invite(f.ctx, g.ID, alice.ID, carol.Email); err != nil {
			t.Errorf("re-invite failed: %v", err)
		}
		pending, err := f.svc.ListInvitations(f.ctx, carol.ID)
		if err != nil || len(pending) != 1 {
			t.Errorf("ListInvitations = %d, %v", len(pending), err)
		}
	})
}

func TestUnanimousModification(t *testing.T) {
	t.Run("applies only after every other member approves", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
		g := f.group("Flat", alice, bob, carol)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "X")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		if mod.OldValue != "Flat" || mod.Status != models.ModificationPending {
			t.Errorf("unexpected modification: %+v", mod)
		}
		if len(f.notifier.to(bob.ID)) != 1 || len(f.notifier.to(carol.ID)) != 1 || len(f.notifier.to(alice.ID)) != 0 {
			t.Error("expected one notification each for bob and carol and none for the proposer")
		}

		got, err := f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, true)
		if err != nil {
			t.Fatalf("bob vote failed: %v", err)
		}
		if got.Status != models.ModificationPending {
			t.Errorf("after bob: expected pending, got %s", got.Status)
		}
		if f.reload(g.ID).Name != "Flat" {
			t.Error("group changed before unanimity")
		}

		got, err = f.svc.RespondToModification(f.ctx, mod.ID, carol.ID, true)
		if err != nil {
			t.Fatalf("carol vote failed: %v", err)
		}
		if got.Status != models.ModificationApproved {
			t.Errorf("after carol: expected approved, got %s", got.Status)
		}
		if f.reload(g.ID).Name != "X" {
			t.Errorf("name: expected X, got %s", f.reload(g.ID).Name)
		}
	})

	t.Run("one rejection rejects and later votes are refused", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
		g := f.group("Flat", alice, bob, carol)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeTargetAmount, "2500")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		got, err := f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, false)
		if err != nil {
			t.Fatalf("bob vote failed: %v", err)
		}
		if got.Status != models.ModificationRejected {
			t.Errorf("expected rejected, got %s", got.Status)
		}
		if f.reload(g.ID).TargetAmount.Valid {
			t.Error("target amount should be untouched")
		}

		_, err = f.svc.RespondToModification(f.ctx, mod.ID, carol.ID, true)
		expectCode(t, err, apperrors.CodeAlreadyProcessed)
	})

	t.Run("changing a vote replaces it", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol, dave := f.user("Alice"), f.user("Bob"), f.user("Carol"), f.user("Dave")
		g := f.group("Flat", alice, bob, carol, dave)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeDescription, "Rent and bills")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		got, err := f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, true)
		if err != nil {
			t.Fatalf("first vote failed: %v", err)
		}
		if got.Status != models.ModificationPending {
			t.Fatalf("expected pending after one of three approvals, got %s", got.Status)
		}

		got, err = f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, false)
		if err != nil {
			t.Fatalf("second vote failed: %v", err)
		}
		if got.Status != models.ModificationRejected {
			t.Errorf("expected rejected, got %s", got.Status)
		}

		votes, err := f.store.ListApprovals(f.ctx, mod.ID)
		if err != nil {
			t.Fatalf("ListApprovals failed: %v", err)
		}
		if len(votes) != 1 || votes[0].UserID != bob.ID || votes[0].Approved {
			t.Errorf("expected bob's single vote to now reject, got %+v", votes)
		}
		if f.reload(g.ID).Description != "" {
			t.Error("description should be untouched")
		}
	})

	t.Run("proposer approval does not count", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
		g := f.group("Flat", alice, bob, carol)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Flat 2B")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		got, err := f.svc.RespondToModification(f.ctx, mod.ID, alice.ID, true)
		if err != nil {
			t.Fatalf("vote failed: %v", err)
		}
		if got.Status != models.ModificationPending {
			t.Errorf("expected pending, got %s", got.Status)
		}
		if name := f.reload(g.ID).Name; name != "Flat" {
			t.Errorf("expected name unchanged, got %q", name)
		}

		t.Run("proposer veto rejects", func(t *testing.T) {
			got, err := f.svc.RespondToModification(f.ctx, mod.ID, alice.ID, false)
			if err != nil {
				t.Fatalf("vote failed: %v", err)
			}
			if got.Status != models.ModificationRejected {
				t.Errorf("expected rejected, got %s", got.Status)
			}
			if name := f.reload(g.ID).Name; name != "Flat" {
				t.Errorf("expected name unchanged, got %q", name)
			}
		})
	})

	t.Run("two-member group applies on the single approval", func(t *testing.T) {
		f := newFixture(t)
		alice, bob := f.user("Alice"), f.user("Bob")
		g := f.group("Trip", alice, bob)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeTargetAmount, "800.50")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		got, err := f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, true)
		if err != nil {
			t.Fatalf("vote failed: %v", err)
		}
		if got.Status != models.ModificationApproved {
			t.Errorf("expected approved, got %s", got.Status)
		}
		target := f.reload(g.ID).TargetAmount
		if !target.Valid || !target.Decimal.Equal(decimal.RequireFromString("800.5")) {
			t.Errorf("target amount: got %+v", target)
		}
	})

	t.Run("single-member group applies at proposal", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user("Alice")
		g := f.group("Solo", alice)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Savings")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		if mod.Status != models.ModificationApproved {
			t.Errorf("expected approved, got %s", mod.Status)
		}
		if f.reload(g.ID).Name != "Savings" {
			t.Error("change was not applied")
		}
	})

	t.Run("non-member cannot propose or vote", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, mallory := f.user("Alice"), f.user("Bob"), f.user("Mallory")
		g := f.group("Flat", alice, bob)

		_, err := f.svc.ProposeModification(f.ctx, g.ID, mallory.ID, models.ChangeName, "Mine")
		expectCode(t, err, apperrors.CodeNotMember)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Ours")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		_, err = f.svc.RespondToModification(f.ctx, mod.ID, mallory.ID, true)
		expectCode(t, err, apperrors.CodeNotMember)

		_, err = f.svc.GetModification(f.ctx, mod.ID, mallory.ID)
		expectCode(t, err, apperrors.CodeModificationNotFound)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user("Alice")
		g := f.group("Flat", alice)

		tests := []struct {
			kind  models.ChangeKind
			value string
		}{
			{models.ChangeTargetAmount, "lots"},
			{models.ChangeTargetAmount, "-5"},
			{models.ChangeName, "   "},
			{"color", "red"},
		}
		for _, tt := range tests {
			_, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, tt.kind, tt.value)
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("%s=%q: expected validation error, got %v", tt.kind, tt.value, err)
			}
		}
	})

	t.Run("unknown modification", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user("Alice")
		_, err := f.svc.RespondToModification(f.ctx, "missing", alice.ID, true)
		expectCode(t, err, apperrors.CodeModificationNotFound)
	})
}

func TestNotificationFailureDoesNotUndoWorkflow(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("inbox unavailable")
	alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
	g := f.group("Flat", alice, carol)

	inv, err := f.svc.Invite(f.ctx, g.ID, alice.ID, bob.Email)
	if err != nil {
		t.Fatalf("Invite should succeed despite notifier failure: %v", err)
	}
	if _, err := f.store.GetInvitation(f.ctx, inv.ID); err != nil {
		t.Errorf("invitation should be persisted: %v", err)
	}

	mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Home")
	if err != nil {
		t.Fatalf("ProposeModification should succeed despite notifier failure: %v", err)
	}
	if _, err := f.store.GetModification(f.ctx, mod.ID); err != nil {
		t.Errorf("modification should be persisted: %v", err)
	}
}

func TestConcurrentVotesResolveOnce(t *testing.T) {
	f := newFixture(t)
	alice := f.user("Alice")
	voters := []*models.User{f.user("Bob"), f.user("Carol"), f.user("Dan"), f.user("Erin"), f.user("Frank")}
	g := f.group("Club", alice, voters...)

	mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Book club")
	if err != nil {
		t.Fatalf("ProposeModification failed: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
	)
	for _, v := range voters {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			got, err := f.svc.RespondToModification(f.ctx, mod.ID, userID, true)
			if err != nil {
				t.Errorf("vote by %s failed: %v", userID, err)
				return
			}
			if got.Status == models.ModificationApproved {
				mu.Lock()
				approved++
				mu.Unlock()
			}
		}(v.ID)
	}
	wg.Wait()

	if approved != 1 {
		t.Errorf("expected exactly one vote to observe approval, got %d", approved)
	}
	if f.reload(g.ID).Name != "Book club" {
		t.Error("change was not applied")
	}
}

func TestLeaveGroup(t *testing.T) {
	t.Run("leaving can complete unanimity", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
		g := f.group("Flat", alice, bob, carol)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, alice.ID, models.ChangeName, "Duo")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		if _, err := f.svc.RespondToModification(f.ctx, mod.ID, bob.ID, true); err != nil {
			t.Fatalf("vote failed: %v", err)
		}

		resolved, err := f.svc.LeaveGroup(f.ctx, g.ID, carol.ID)
		if err != nil {
			t.Fatalf("LeaveGroup failed: %v", err)
		}
		if len(resolved) != 1 || resolved[0].Status != models.ModificationApproved {
			t.Errorf("expected the pending modification to be approved, got %+v", resolved)
		}
		if f.reload(g.ID).Name != "Duo" {
			t.Error("change was not applied")
		}
	})

	t.Run("proposer leaving rejects their proposals", func(t *testing.T) {
		f := newFixture(t)
		alice, bob, carol := f.user("Alice"), f.user("Bob"), f.user("Carol")
		g := f.group("Flat", alice, bob, carol)

		mod, err := f.svc.ProposeModification(f.ctx, g.ID, bob.ID, models.ChangeName, "Bob's")
		if err != nil {
			t.Fatalf("ProposeModification failed: %v", err)
		}
		if _, err := f.svc.LeaveGroup(f.ctx, g.ID, bob.ID); err != nil {
			t.Fatalf("LeaveGroup failed: %v", err)
		}
		got, err := f.store.GetModification(f.ctx, mod.ID)
		if err != nil {
			t.Fatalf("GetModification failed: %v", err)
		}
		if got.Status != models.ModificationRejected {
			t.Errorf("expected rejected, got %s", got.Status)
		}
		if ok, _ := f.svc.IsMember(f.ctx, g.ID, bob.ID); ok {
			t.Error("bob should no longer be a member")
		}
	})

	t.Run("last member cannot leave", func(t *testing.T) {
		f := newFixture(t)
		alice := f.user("Alice")
		g := f.group("Solo", alice)
		_, err := f.svc.LeaveGroup(f.ctx, g.ID, alice.ID)
		expectCode(t, err, apperrors.CodeLastMember)
	})
}

func TestGroupQueries(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("Alice"), f.user("Bob")
	g := f.group("Flat", alice, bob)
	f.group("Other", bob)

	list, err := f.svc.ListGroups(f.ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != g.ID || list[0].Role != models.RoleAdmin {
		t.Errorf("unexpected groups for alice: %+v", list)
	}

	detail, err := f.svc.GetGroup(f.ctx, g.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(detail.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(detail.Members))
	}

	others, err := f.svc.MembersExcept(f.ctx, g.ID, alice.ID)
	if err != nil {
		t.Fatalf("MembersExcept failed: %v", err)
	}
	if len(others) != 1 || others[0] != bob.ID {
		t.Errorf("expected only bob besides alice, got %v", others)
	}

	outsider := f.user("Eve")
	_, err = f.svc.GetGroup(f.ctx, g.ID, outsider.ID)
	expectCode(t, err, apperrors.CodeGroupNotFound)

	_, err = f.svc.CreateGroup(f.ctx, alice.ID, NewGroup{Name: " "})
	expectCode(t, err, apperrors.CodeInvalidArgument)
}
