// Package apperror defines the error kinds returned by the meeting service.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a classified error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New returns an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies err. The message is what clients see; err is kept for logs.
func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or "internal" when err is unclassified.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Shared errors.
var (
	ErrUnauthorized            = New(KindUnauthorized, "unauthorized", "authentication required")
	ErrForbidden               = New(KindForbidden, "forbidden", "not allowed to perform this action")
	ErrMeetingNotFound         = New(KindNotFound, "meeting_not_found", "meeting not found")
	ErrParticipantNotFound     = New(KindNotFound, "participant_not_found", "participant not found")
	ErrDuplicateParticipant    = New(KindConflict, "duplicate_participant", "participant already exists")
	ErrRosterFull              = New(KindConflict, "roster_full", "meeting has reached its participant limit")
	ErrCannotRemoveHost        = New(KindConflict, "cannot_remove_host", "the host cannot be removed")
	ErrCannotReassignHost      = New(KindConflict, "cannot_reassign_host", "the host role cannot be reassigned")
	ErrStreamTaken             = New(KindConflict, "stream_taken", "stream id is already in use")
	ErrConcurrentModification  = New(KindConflict, "concurrent_modification", "meeting was modified concurrently, try again")
	ErrInvalidRole             = New(KindInvalidArgument, "invalid_role", "invalid participant role")
	ErrInvalidArgument         = New(KindInvalidArgument, "invalid_argument", "invalid argument")
	ErrInvalidStatusTransition = New(KindInvalidArgument, "invalid_status_transition", "invalid status transition")
	ErrInvalidPassword         = New(KindForbidden, "invalid_password", "meeting password is incorrect")
	ErrMediaUnavailable        = New(KindUnavailable, "media_unavailable", "media token issuing is not configured")
)

// Invalid returns an InvalidArgument error with a specific message.
func Invalid(format string, args ...interface{}) *Error {
	return ErrInvalidArgument.WithMessage(format, args...)
}
