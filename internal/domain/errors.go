package domain

import "errors"

// Error kinds. Every domain failure unwraps to exactly one of them; anything else is internal.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func InvalidInput(msg string) error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

var (
	ErrTeamNotFound       = NotFound("team not found")
	ErrUserNotFound       = NotFound("user not found")
	ErrTaskNotFound       = NotFound("task not found")
	ErrMeetingNotFound    = NotFound("meeting not found")
	ErrEvaluationNotFound = NotFound("evaluation not found")
	ErrMembershipNotFound = NotFound("user is not a member of this team")
	ErrInvalidInviteCode  = NotFound("invalid invite code")

	ErrAlreadyMember   = Conflict("user is already a member of this team")
	ErrInviteCodeTaken = Conflict("invite code already in use")
	ErrEmailTaken      = Conflict("user with this email already exists")

	ErrInvalidInterval = InvalidInput("end time must be after start time")
	ErrInvalidRating   = InvalidInput("rating must be between 1 and 5")
	ErrInvalidRole     = InvalidInput("role must be one of: member, manager, admin")
	ErrInvalidStatus   = InvalidInput("status must be one of: OPEN, IN_PROGRESS, COMPLETED")
)
