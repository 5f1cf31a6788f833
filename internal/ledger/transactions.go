package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
	"github.com/phobhub/phobhub/internal/telemetry"
)

// TransactionInput describes a new ledger entry.
type TransactionInput struct {
	CategoryID  string
	Amount      decimal.Decimal
	Date        time.Time
	Description string

	// Type defaults to the category's type.
	Type models.TransactionType

	// OwnerType defaults to the acting user. For OwnerUser, OwnerID is
	// ignored and the acting user is the owner.
	OwnerType models.OwnerType
	OwnerID   string
}

// TransactionPatch lists the fields to change. Nil means unchanged.
// OwnerType and OwnerID must be given together.
type TransactionPatch struct {
	CategoryID  *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
	Type        *models.TransactionType
	OwnerType   *models.OwnerType
	OwnerID     *string
}

// Create records a transaction on behalf of userID.
func (s *Service) Create(ctx context.Context, userID string, in TransactionInput) (_ *models.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "ledger.Create", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "date is required")
	}
	if in.Type != "" && !in.Type.Valid() {
		return nil, invalidType(in.Type)
	}

	ownerType, ownerID, err := s.resolveOwner(ctx, userID, in.OwnerType, in.OwnerID)
	if err != nil {
		return nil, err
	}
	category, err := ownedCategory(ctx, s.store, in.CategoryID, userID)
	if err != nil {
		return nil, err
	}

	typ := in.Type
	if typ == "" {
		typ = category.Type
	}

	now := s.clock()
	txn := &models.Transaction{
		UserID:      userID,
		CategoryID:  category.ID,
		Amount:      in.Amount,
		Date:        truncateDay(in.Date),
		Description: strings.TrimSpace(in.Description),
		Type:        typ,
		OwnerType:   ownerType,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction created",
		"transaction_id", txn.ID,
		"user_id", userID,
		"owner_type", ownerType,
		"owner_id", ownerID,
	)
	return s.reload(ctx, txn.ID)
}

// Get returns a transaction if userID may see it: the owner of a personal
// entry, or a current member of the owning group.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.New(apperrors.CodeTransactionNotFound, "transaction not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read transaction: %w", err)
	}

	allowed, err := s.canAccess(ctx, txn, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.New(apperrors.CodeForbidden, "you do not have access to this transaction")
	}
	return txn, nil
}

func (s *Service) canAccess(ctx context.Context, txn *models.Transaction, userID string) (bool, error) {
	switch txn.OwnerType {
	case models.OwnerUser:
		return txn.OwnerID == userID, nil
	case models.OwnerGroup:
		_, err := s.store.GetMembership(ctx, txn.OwnerID, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read membership: %w", err)
		}
		return true, nil
	default:
		return false, nil
	}
}

// Update applies patch to a transaction userID may access. Any member of the
// owning group may edit a group entry; the creator is never changed.
func (s *Service) Update(ctx context.Context, id, userID string, patch TransactionPatch) (_ *models.Transaction, err error) {
	ctx, span := tracer.Start(ctx, "ledger.Update", trace.WithAttributes(
		attribute.String("transaction.id", id),
		attribute.String("user.id", userID),
	))
	defer func() { telemetry.EndSpan(span, err) }()

	txn, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if patch.CategoryID != nil {
		category, err := ownedCategory(ctx, s.store, *patch.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		txn.CategoryID = category.ID
	}

	if (patch.OwnerType == nil) != (patch.OwnerID == nil) {
		return nil, apperrors.New(apperrors.CodeIncompleteOwnerPatch, "ownerType and ownerId must be provided together")
	}
	if patch.OwnerType != nil {
		txn.OwnerType, txn.OwnerID, err = s.resolveOwner(ctx, userID, *patch.OwnerType, *patch.OwnerID)
		if err != nil {
			return nil, err
		}
	}

	if patch.Amount != nil {
		if err := validateAmount(*patch.Amount); err != nil {
			return nil, err
		}
		txn.Amount = *patch.Amount
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return nil, apperrors.New(apperrors.CodeInvalidArgument, "date is required")
		}
		txn.Date = truncateDay(*patch.Date)
	}
	if patch.Description != nil {
		txn.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, invalidType(*patch.Type)
		}
		txn.Type = *patch.Type
	}

	txn.UpdatedAt = s.clock()
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction updated", "transaction_id", id, "user_id", userID)
	return s.reload(ctx, id)
}

// Delete removes a transaction userID may access and returns it as it was.
func (s *Service) Delete(ctx context.Context, id, userID string) (*models.Transaction, error) {
	txn, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "transaction deleted", "transaction_id", id, "user_id", userID)
	return txn, nil
}

// List returns the transactions visible to userID: personal entries plus the
// entries of every group userID currently belongs to, newest first.
func (s *Service) List(ctx context.Context, userID string, filter models.TransactionFilter) ([]*models.Transaction, error) {
	filter.ViewerID = userID
	if filter.OwnerType != "" {
		switch filter.OwnerType {
		case models.OwnerUser:
			filter.OwnerID = userID
		case models.OwnerGroup:
			if filter.OwnerID == "" {
				return nil, apperrors.New(apperrors.CodeInvalidArgument, "ownerId is required for group filters")
			}
		default:
			return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown owner type %q", filter.OwnerType)
		}
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalidType(filter.Type)
	}
	if !filter.From.IsZero() {
		filter.From = truncateDay(filter.From)
	}
	if !filter.To.IsZero() {
		filter.To = truncateDay(filter.To)
	}

	list, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

// resolveOwner decides the owner of an entry written by userID. A missing
// owner type, or OwnerUser, means userID; OwnerGroup requires an existing
// group that userID belongs to.
func (s *Service) resolveOwner(ctx context.Context, userID string, ownerType models.OwnerType, ownerID string) (models.OwnerType, string, error) {
	switch ownerType {
	case "", models.OwnerUser:
		return models.OwnerUser, userID, nil
	case models.OwnerGroup:
		// An empty group id is an unknown group, never the personal ledger.
	default:
		return "", "", apperrors.Newf(apperrors.CodeInvalidArgument, "unknown owner type %q", ownerType)
	}

	if _, err := s.store.GetGroup(ctx, ownerID); errors.Is(err, storage.ErrNotFound) {
		return "", "", apperrors.New(apperrors.CodeGroupNotFound, "group not found")
	} else if err != nil {
		return "", "", fmt.Errorf("read group: %w", err)
	}

	_, err := s.store.GetMembership(ctx, ownerID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", apperrors.New(apperrors.CodeNotMember, "you are not a member of this group")
	}
	if err != nil {
		return "", "", fmt.Errorf("read membership: %w", err)
	}
	return models.OwnerGroup, ownerID, nil
}

func (s *Service) reload(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload transaction: %w", err)
	}
	return txn, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.New(apperrors.CodeInvalidArgument, "amount must be greater than zero")
	}
	return nil
}

func invalidType(t models.TransactionType) error {
	return apperrors.Newf(apperrors.CodeInvalidArgument, "transaction type must be income or expense, got %q", t)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
