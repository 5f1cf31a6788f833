package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/ledger"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/pkg/api"
)

// CategoryService implements the CategoryService procedures.
type CategoryService struct {
	ledger *ledger.Service
	logger *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(svc *ledger.Service, logger *slog.Logger) *CategoryService {
	return &CategoryService{ledger: svc, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CategoryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.ledger.CreateCategory(ctx, userID, req.Msg.Name, models.TransactionType(req.Msg.Type), req.Msg.Color)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreateCategory", err)
	}
	return connect.NewResponse(&api.CategoryResponse{Category: toAPICategory(c)}), nil
}

func (s *CategoryService) List(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.ledger.ListCategories(ctx, userID, models.TransactionType(req.Msg.Type))
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListCategories", err)
	}

	out := make([]*api.Category, len(list))
	for i, c := range list {
		out[i] = toAPICategory(c)
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: out}), nil
}

func (s *CategoryService) Update(ctx context.Context, req *connect.Request[api.UpdateCategoryRequest]) (*connect.Response[api.CategoryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	patch := ledger.CategoryPatch{Name: req.Msg.Name, Color: req.Msg.Color}
	if req.Msg.Type != nil {
		typ := models.TransactionType(*req.Msg.Type)
		patch.Type = &typ
	}

	c, err := s.ledger.UpdateCategory(ctx, req.Msg.ID, userID, patch)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "UpdateCategory", err)
	}
	return connect.NewResponse(&api.CategoryResponse{Category: toAPICategory(c)}), nil
}

func (s *CategoryService) Delete(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteCategory(ctx, req.Msg.ID, userID); err != nil {
		return nil, toConnectError(ctx, s.logger, "DeleteCategory", err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}
