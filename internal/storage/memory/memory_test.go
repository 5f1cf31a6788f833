package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateUser(ctx, &models.User{Email: "a@example.com", Name: "A"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := s.GetUserByEmail(ctx, "a@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected user to be rolled back, got %v", err)
	}
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx storage.Store) error {
		// Nested InTx runs inline on the same snapshot.
		return tx.InTx(ctx, func(inner storage.Store) error {
			return inner.CreateUser(ctx, &models.User{Email: "b@example.com", Name: "B"})
		})
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	if _, err := s.GetUserByEmail(ctx, "b@example.com"); err != nil {
		t.Errorf("expected committed user, got %v", err)
	}
}

func TestPendingInvitationUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	owner := &models.User{Email: "owner@example.com"}
	guest := &models.User{Email: "guest@example.com"}
	for _, u := range []*models.User{owner, guest} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	group := &models.Group{CreatorID: owner.ID, Name: "Flat"}
	if err := s.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	inv := &models.Invitation{GroupID: group.ID, InviterID: owner.ID, InviteeID: guest.ID, Status: models.InvitationPending}
	if err := s.CreateInvitation(ctx, inv); err != nil {
		t.Fatalf("CreateInvitation failed: %v", err)
	}
	dup := &models.Invitation{GroupID: group.ID, InviterID: owner.ID, InviteeID: guest.ID, Status: models.InvitationPending}
	if err := s.CreateInvitation(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	ok, err := s.ResolveInvitation(ctx, inv.ID, models.InvitationRejected)
	if err != nil || !ok {
		t.Fatalf("ResolveInvitation = %v, %v", ok, err)
	}
	ok, _ = s.ResolveInvitation(ctx, inv.ID, models.InvitationAccepted)
	if ok {
		t.Error("expected second resolution to be refused")
	}

	// A resolved invitation frees the slot.
	if err := s.CreateInvitation(ctx, dup); err != nil {
		t.Errorf("expected new invitation after rejection, got %v", err)
	}
}
