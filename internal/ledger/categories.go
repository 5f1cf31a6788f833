package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/internal/storage"
)

// CategoryPatch lists the category fields to change. Nil means unchanged.
type CategoryPatch struct {
	Name  *string
	Type  *models.TransactionType
	Color *string
}

// CreateCategory adds a category for userID. An empty color gets the default.
func (s *Service) CreateCategory(ctx context.Context, userID, name string, typ models.TransactionType, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "category name is required")
	}
	if !typ.Valid() {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "category type must be income or expense, got %q", typ)
	}
	if color == "" {
		color = models.DefaultCategoryColor
	}

	c := &models.Category{
		UserID:    userID,
		Name:      name,
		Type:      typ,
		Color:     color,
		CreatedAt: s.clock(),
	}
	err := s.store.CreateCategory(ctx, c)
	if errors.Is(err, storage.ErrConflict) {
		return nil, duplicateCategory()
	}
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// ListCategories returns userID's categories by name, optionally of one type.
func (s *Service) ListCategories(ctx context.Context, userID string, typ models.TransactionType) ([]*models.Category, error) {
	if typ != "" && !typ.Valid() {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "unknown category type %q", typ)
	}
	list, err := s.store.ListCategories(ctx, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

// UpdateCategory applies patch to one of userID's categories.
func (s *Service) UpdateCategory(ctx context.Context, id, userID string, patch CategoryPatch) (*models.Category, error) {
	c, err := ownedCategory(ctx, s.store, id, userID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
		if c.Name == "" {
			return nil, apperrors.New(apperrors.CodeInvalidArgument, "category name is required")
		}
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "category type must be income or expense, got %q", *patch.Type)
		}
		c.Type = *patch.Type
	}
	if patch.Color != nil && *patch.Color != "" {
		c.Color = *patch.Color
	}

	err = s.store.UpdateCategory(ctx, c)
	if errors.Is(err, storage.ErrConflict) {
		return nil, duplicateCategory()
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes one of userID's categories unless a transaction
// is filed under it.
func (s *Service) DeleteCategory(ctx context.Context, id, userID string) error {
	if _, err := ownedCategory(ctx, s.store, id, userID); err != nil {
		return err
	}
	inUse, err := s.store.CategoryInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if inUse {
		return categoryInUse()
	}

	err = s.store.DeleteCategory(ctx, id)
	if errors.Is(err, storage.ErrConflict) {
		return categoryInUse()
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ownedCategory loads a category that must belong to userID. Other users'
// categories are reported as not found.
func ownedCategory(ctx context.Context, st storage.CategoryStore, id, userID string) (*models.Category, error) {
	c, err := st.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && c.UserID != userID) {
		return nil, apperrors.New(apperrors.CodeCategoryNotFound, "category not found")
	}
	if err != nil {
		return nil, fmt.Errorf("read category: %w", err)
	}
	return c, nil
}

func duplicateCategory() error {
	return apperrors.New(apperrors.CodeDuplicateCategory, "a category with this name and type already exists")
}

func categoryInUse() error {
	return apperrors.New(apperrors.CodeCategoryInUse, "category is used by transactions")
}
