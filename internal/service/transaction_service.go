package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/events"
	"github.com/phobhub/phobhub/internal/ledger"
	"github.com/phobhub/phobhub/internal/models"
	"github.com/phobhub/phobhub/pkg/api"
)

// TransactionService implements the TransactionService procedures over the
// ownership-scoped ledger.
type TransactionService struct {
	ledger *ledger.Service
	events events.Publisher
	logger *slog.Logger
}

// NewTransactionService creates a TransactionService. A nil publisher
// drops change events.
func NewTransactionService(svc *ledger.Service, publisher events.Publisher, logger *slog.Logger) *TransactionService {
	if publisher == nil {
		publisher = events.Discard
	}
	return &TransactionService{ledger: svc, events: publisher, logger: logger}
}

// Create records a personal or group transaction.
func (s *TransactionService) Create(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	date, err := parseDate("date", req.Msg.Date)
	if err != nil {
		return nil, err
	}

	txn, err := s.ledger.Create(ctx, userID, ledger.TransactionInput{
		CategoryID:  req.Msg.CategoryID,
		Amount:      req.Msg.Amount,
		Date:        date,
		Description: req.Msg.Description,
		Type:        models.TransactionType(req.Msg.Type),
		OwnerType:   models.OwnerType(req.Msg.OwnerType),
		OwnerID:     req.Msg.OwnerID,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "CreateTransaction", err)
	}

	s.publish(ctx, events.TransactionCreated, userID, txn)
	return connect.NewResponse(&api.TransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

// Get returns one transaction the caller can see.
func (s *TransactionService) Get(ctx context.Context, req *connect.Request[api.TransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	txn, err := s.ledger.Get(ctx, req.Msg.ID, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "GetTransaction", err)
	}
	return connect.NewResponse(&api.TransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

// Update changes the fields present in the request.
func (s *TransactionService) Update(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	msg := req.Msg
	patch := ledger.TransactionPatch{
		CategoryID:  msg.CategoryID,
		Amount:      msg.Amount,
		Description: msg.Description,
		OwnerID:     msg.OwnerID,
	}
	if msg.Date != nil {
		date, err := parseDate("date", *msg.Date)
		if err != nil {
			return nil, err
		}
		patch.Date = &date
	}
	if msg.Type != nil {
		typ := models.TransactionType(*msg.Type)
		patch.Type = &typ
	}
	if msg.OwnerType != nil {
		ownerType := models.OwnerType(*msg.OwnerType)
		patch.OwnerType = &ownerType
	}

	txn, err := s.ledger.Update(ctx, msg.ID, userID, patch)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "UpdateTransaction", err)
	}

	s.publish(ctx, events.TransactionUpdated, userID, txn)
	return connect.NewResponse(&api.TransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

// Delete removes a transaction and returns it as it was.
func (s *TransactionService) Delete(ctx context.Context, req *connect.Request[api.TransactionRequest]) (*connect.Response[api.TransactionResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	txn, err := s.ledger.Delete(ctx, req.Msg.ID, userID)
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "DeleteTransaction", err)
	}

	s.publish(ctx, events.TransactionDeleted, userID, txn)
	return connect.NewResponse(&api.TransactionResponse{Transaction: toAPITransaction(txn)}), nil
}

// List returns the caller's personal transactions and those of their
// groups, filtered and newest first.
func (s *TransactionService) List(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	from, err := parseDate("from", req.Msg.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.Msg.To)
	if err != nil {
		return nil, err
	}

	list, err := s.ledger.List(ctx, userID, models.TransactionFilter{
		OwnerType:  models.OwnerType(req.Msg.OwnerType),
		OwnerID:    req.Msg.OwnerID,
		From:       from,
		To:         to,
		Type:       models.TransactionType(req.Msg.Type),
		CategoryID: req.Msg.CategoryID,
	})
	if err != nil {
		return nil, toConnectError(ctx, s.logger, "ListTransactions", err)
	}

	out := make([]*api.Transaction, len(list))
	for i, txn := range list {
		out[i] = toAPITransaction(txn)
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

func (s *TransactionService) publish(ctx context.Context, name events.Name, actorID string, txn *models.Transaction) {
	ev := events.Event{Name: name, ActorID: actorID, TransactionID: txn.ID}
	if txn.OwnerType == models.OwnerGroup {
		ev.GroupID = txn.OwnerID
	}
	s.events.Publish(ctx, ev)
}
