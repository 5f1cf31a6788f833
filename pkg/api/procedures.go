package api

const (
	AuthServiceName         = "phobhub.v1.AuthService"
	GroupServiceName        = "phobhub.v1.GroupService"
	TransactionServiceName  = "phobhub.v1.TransactionService"
	CategoryServiceName     = "phobhub.v1.CategoryService"
	NotificationServiceName = "phobhub.v1.NotificationService"
)

const (
	AuthServiceRegisterProcedure = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure    = "/" + AuthServiceName + "/Login"
	AuthServiceMeProcedure       = "/" + AuthServiceName + "/Me"
)

const (
	GroupServiceCreateGroupProcedure           = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceListGroupsProcedure            = "/" + GroupServiceName + "/ListGroups"
	GroupServiceGetGroupProcedure              = "/" + GroupServiceName + "/GetGroup"
	GroupServiceLeaveGroupProcedure            = "/" + GroupServiceName + "/LeaveGroup"
	GroupServiceInviteProcedure                = "/" + GroupServiceName + "/Invite"
	GroupServiceRespondToInvitationProcedure   = "/" + GroupServiceName + "/RespondToInvitation"
	GroupServiceListInvitationsProcedure       = "/" + GroupServiceName + "/ListInvitations"
	GroupServiceProposeModificationProcedure   = "/" + GroupServiceName + "/ProposeModification"
	GroupServiceRespondToModificationProcedure = "/" + GroupServiceName + "/RespondToModification"
	GroupServiceGetModificationProcedure       = "/" + GroupServiceName + "/GetModification"
	GroupServiceListModificationsProcedure     = "/" + GroupServiceName + "/ListModifications"
)

const (
	TransactionServiceCreateProcedure = "/" + TransactionServiceName + "/Create"
	TransactionServiceGetProcedure    = "/" + TransactionServiceName + "/Get"
	TransactionServiceUpdateProcedure = "/" + TransactionServiceName + "/Update"
	TransactionServiceDeleteProcedure = "/" + TransactionServiceName + "/Delete"
	TransactionServiceListProcedure   = "/" + TransactionServiceName + "/List"
)

const (
	CategoryServiceCreateProcedure = "/" + CategoryServiceName + "/Create"
	CategoryServiceListProcedure   = "/" + CategoryServiceName + "/List"
	CategoryServiceUpdateProcedure = "/" + CategoryServiceName + "/Update"
	CategoryServiceDeleteProcedure = "/" + CategoryServiceName + "/Delete"
)

const (
	NotificationServiceListProcedure        = "/" + NotificationServiceName + "/List"
	NotificationServiceMarkReadProcedure    = "/" + NotificationServiceName + "/MarkRead"
	NotificationServiceMarkAllReadProcedure = "/" + NotificationServiceName + "/MarkAllRead"
)

// PublicProcedures can be called without a bearer token.
var PublicProcedures = []string{
	AuthServiceRegisterProcedure,
	AuthServiceLoginProcedure,
}

// ErrorCodeHeader carries the domain error code on failed calls.
const ErrorCodeHeader = "Phobhub-Error-Code"
