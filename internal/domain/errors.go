package domain

import "errors"

// Error kinds. Every error returned by the services wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error is a classified service error. Kind is one of the sentinels above;
// Entity names the record involved, when there is one.
type Error struct {
	Kind    error
	Entity  string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Entity != "" {
		return e.Entity + " " + e.Kind.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

// Is matches another *Error of the same kind and entity, so an error with a
// more specific message still satisfies errors.Is(err, ErrUserNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Entity != "" && t.Kind == e.Kind && t.Entity == e.Entity
}

// NotFound returns an ErrNotFound error for the given entity.
func NotFound(entity string) *Error {
	return &Error{Kind: ErrNotFound, Entity: entity, Message: entity + " not found"}
}

// NewError returns an error of the given kind with a human-readable message.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Entity-specific not-found errors.
var (
	ErrUserNotFound       = NotFound("user")
	ErrEventNotFound      = NotFound("event")
	ErrInvitationNotFound = NotFound("invitation")
)

// ErrDuplicateEmail is returned when registering or updating to an email already in use.
var ErrDuplicateEmail = &Error{Kind: ErrConflict, Entity: "user", Message: "email already in use"}

// ErrMembersUnset is returned when an event record has no member set loaded.
var ErrMembersUnset = &Error{Kind: ErrInvalidState, Entity: "event", Message: "event members are not set"}

// KindOf returns the error kind wrapped by err, or nil when err is not classified.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrAccessDenied, ErrConflict, ErrForbidden,
		ErrInvalidState, ErrInvalidInput, ErrInvalidCredentials,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
