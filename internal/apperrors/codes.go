package apperrors

// Kind groups codes by how a caller should react.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Code is a machine-readable error code.
type Code string

const (
	CodeNotMember                  Code = "NOT_MEMBER"
	CodeForbidden                  Code = "FORBIDDEN"
	CodeUserNotFound               Code = "USER_NOT_FOUND"
	CodeGroupNotFound              Code = "GROUP_NOT_FOUND"
	CodeInvitationNotFound         Code = "INVITATION_NOT_FOUND"
	CodeModificationNotFound       Code = "MODIFICATION_NOT_FOUND"
	CodeCategoryNotFound           Code = "CATEGORY_NOT_FOUND"
	CodeTransactionNotFound        Code = "TRANSACTION_NOT_FOUND"
	CodeNotificationNotFound       Code = "NOTIFICATION_NOT_FOUND"
	CodeAlreadyMember              Code = "ALREADY_MEMBER"
	CodeDuplicatePendingInvitation Code = "DUPLICATE_PENDING_INVITATION"
	CodeAlreadyProcessed           Code = "ALREADY_PROCESSED"
	CodeLastMember                 Code = "LAST_MEMBER"
	CodeCategoryInUse              Code = "CATEGORY_IN_USE"
	CodeDuplicateCategory          Code = "DUPLICATE_CATEGORY"
	CodeIncompleteOwnerPatch       Code = "INCOMPLETE_OWNER_PATCH"
	CodeInvalidArgument            Code = "INVALID_ARGUMENT"
)

// Kind maps a code to its kind. Unknown codes are internal.
func (c Code) Kind() Kind {
	switch c {
	case CodeUserNotFound, CodeGroupNotFound, CodeInvitationNotFound,
		CodeModificationNotFound, CodeCategoryNotFound, CodeTransactionNotFound,
		CodeNotificationNotFound:
		return KindNotFound
	case CodeNotMember, CodeForbidden:
		return KindForbidden
	case CodeAlreadyMember, CodeDuplicatePendingInvitation, CodeAlreadyProcessed,
		CodeLastMember, CodeCategoryInUse, CodeDuplicateCategory:
		return KindConflict
	case CodeIncompleteOwnerPatch, CodeInvalidArgument:
		return KindValidation
	default:
		return KindInternal
	}
}
