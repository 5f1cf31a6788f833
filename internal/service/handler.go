// Package service exposes the workflows as Connect services. Handlers
// authenticate the caller, translate messages, call the workflows and map
// domain errors to Connect codes. Nothing below this package knows about
// the transport.
package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/phobhub/phobhub/pkg/api"
)

// routes collects the unary procedures of one service.
type routes struct {
	mux  *http.ServeMux
	opts []connect.HandlerOption
}

func newRoutes(opts []connect.HandlerOption) *routes {
	return &routes{
		mux:  http.NewServeMux(),
		opts: append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...),
	}
}

func unary[Req, Res any](r *routes, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error)) {
	r.mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, r.opts...))
}

// NewAuthServiceHandler mounts s under the AuthService path.
func NewAuthServiceHandler(s *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRoutes(opts)
	unary(r, api.AuthServiceRegisterProcedure, s.Register)
	unary(r, api.AuthServiceLoginProcedure, s.Login)
	unary(r, api.AuthServiceMeProcedure, s.Me)
	return "/" + api.AuthServiceName + "/", r.mux
}

// NewGroupServiceHandler mounts s under the GroupService path.
func NewGroupServiceHandler(s *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRoutes(opts)
	unary(r, api.GroupServiceCreateGroupProcedure, s.CreateGroup)
	unary(r, api.GroupServiceListGroupsProcedure, s.ListGroups)
	unary(r, api.GroupServiceGetGroupProcedure, s.GetGroup)
	unary(r, api.GroupServiceLeaveGroupProcedure, s.LeaveGroup)
	unary(r, api.GroupServiceInviteProcedure, s.Invite)
	unary(r, api.GroupServiceRespondToInvitationProcedure, s.RespondToInvitation)
	unary(r, api.GroupServiceListInvitationsProcedure, s.ListInvitations)
	unary(r, api.GroupServiceProposeModificationProcedure, s.ProposeModification)
	unary(r, api.GroupServiceRespondToModificationProcedure, s.RespondToModification)
	unary(r, api.GroupServiceGetModificationProcedure, s.GetModification)
	unary(r, api.GroupServiceListModificationsProcedure, s.ListModifications)
	return "/" + api.GroupServiceName + "/", r.mux
}

// NewTransactionServiceHandler mounts s under the TransactionService path.
func NewTransactionServiceHandler(s *TransactionService, opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRoutes(opts)
	unary(r, api.TransactionServiceCreateProcedure, s.Create)
	unary(r, api.TransactionServiceGetProcedure, s.Get)
	unary(r, api.TransactionServiceUpdateProcedure, s.Update)
	unary(r, api.TransactionServiceDeleteProcedure, s.Delete)
	unary(r, api.TransactionServiceListProcedure, s.List)
	return "/" + api.TransactionServiceName + "/", r.mux
}

// NewCategoryServiceHandler mounts s under the CategoryService path.
func NewCategoryServiceHandler(s *CategoryService, opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRoutes(opts)
	unary(r, api.CategoryServiceCreateProcedure, s.Create)
	unary(r, api.CategoryServiceListProcedure, s.List)
	unary(r, api.CategoryServiceUpdateProcedure, s.Update)
	unary(r, api.CategoryServiceDeleteProcedure, s.Delete)
	return "/" + api.CategoryServiceName + "/", r.mux
}

// NewNotificationServiceHandler mounts s under the NotificationService path.
func NewNotificationServiceHandler(s *NotificationService, opts ...connect.HandlerOption) (string, http.Handler) {
	r := newRoutes(opts)
	unary(r, api.NotificationServiceListProcedure, s.List)
	unary(r, api.NotificationServiceMarkReadProcedure, s.MarkRead)
	unary(r, api.NotificationServiceMarkAllReadProcedure, s.MarkAllRead)
	return "/" + api.NotificationServiceName + "/", r.mux
}
