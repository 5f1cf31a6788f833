package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/internal/apperrors"
	"github.com/phobhub/phobhub/internal/middleware"
	"github.com/phobhub/phobhub/pkg/api"
)

var errUnauthenticated = errors.New("authentication required")

// connectCode maps a domain error to its Connect status.
func connectCode(e *apperrors.Error) connect.Code {
	if e.Code == apperrors.CodeAlreadyProcessed {
		return connect.CodeFailedPrecondition
	}
	switch e.Kind() {
	case apperrors.KindNotFound:
		return connect.CodeNotFound
	case apperrors.KindForbidden:
		return connect.CodePermissionDenied
	case apperrors.KindConflict:
		return connect.CodeAlreadyExists
	case apperrors.KindValidation:
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}

// toConnectError converts a workflow error for the wire. Domain errors keep
// their message and expose their code in a header; anything else is logged
// and reported as internal without details.
func toConnectError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	if e, ok := apperrors.As(err); ok {
		msg := e.Message
		if e.Kind() == apperrors.KindValidation {
			msg = e.Error()
		}
		cerr := connect.NewError(connectCode(e), errors.New(msg))
		cerr.Meta().Set(api.ErrorCodeHeader, string(e.Code))
		return cerr
	}
	logger.ErrorContext(ctx, op+" failed", "error", err, "user_id", middleware.GetUserID(ctx))
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

// requireUser returns the authenticated user ID.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return userID, nil
}

func invalidArgument(msg string) error {
	cerr := connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
	cerr.Meta().Set(api.ErrorCodeHeader, string(apperrors.CodeInvalidArgument))
	return cerr
}
