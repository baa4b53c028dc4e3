package realtime

import "fmt"

// Kind classifies a command failure.
type Kind int

// Failure kinds.
const (
	KindProtocol Kind = iota + 1
	KindAuth
	KindAuthorization
	KindValidation
	KindNotFound
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "ProtocolError"
	case KindAuth:
		return "AuthError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFoundError"
	case KindInternal:
		return "InternalError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reasons sent to clients. Clients branch on these strings.
const (
	ReasonInvalidFormat        = "Invalid message format"
	ReasonUnknownCommand       = "Unknown command"
	ReasonRateLimited          = "Rate limit exceeded"
	ReasonInvalidToken         = "Invalid token"
	ReasonUserIDMismatch       = "User ID mismatch"
	ReasonUserNotFound         = "User not found"
	ReasonAccountInactive      = "Account is not active"
	ReasonAlreadyAuthenticated = "Already authenticated"
	ReasonNotAuthenticated     = "Not authenticated"
	ReasonMissingFields        = "Missing required fields"
	ReasonInvalidMessageType   = "Invalid message type"
	ReasonRoomNotFound         = "Chat room not found"
	ReasonNotAMember           = "You are not a member of this room"
	ReasonInternal             = "Internal server error"
)

// CommandError is a failed command. Reason is what the client sees.
type CommandError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, reason string) *CommandError {
	return &CommandError{Kind: kind, Reason: reason}
}

func internalError(err error) *CommandError {
	return &CommandError{Kind: KindInternal, Reason: ReasonInternal, Err: err}
}
