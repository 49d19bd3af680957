package business

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so callers can map them without
// parsing messages.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindCapacity          ErrorKind = "capacity_exceeded"
	KindRateLimit         ErrorKind = "rate_limited"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindNotFound          ErrorKind = "not_found"
)

// Error is the single error type returned by aggregate operations.
type Error struct {
	Kind    ErrorKind
	Message string

	sentinel bool
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches kind sentinels, so errors.Is(err, ErrCapacity) holds for every
// capacity failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || !t.sentinel {
		return false
	}
	return t.Kind == e.Kind
}

func newSentinel(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, sentinel: true}
}

// Kind sentinels for errors.Is checks.
var (
	ErrValidation        = newSentinel(KindValidation, "validation failed")
	ErrInvalidTransition = newSentinel(KindInvalidTransition, "invalid state transition")
	ErrCapacity          = newSentinel(KindCapacity, "capacity exceeded")
	ErrRateLimit         = newSentinel(KindRateLimit, "rate limited")
	ErrPermissionDenied  = newSentinel(KindPermissionDenied, "permission denied")
	ErrNotFound          = newSentinel(KindNotFound, "not found")
)

func newError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func transitionError(format string, args ...any) error {
	return newError(KindInvalidTransition, format, args...)
}

func capacityError(format string, args ...any) error {
	return newError(KindCapacity, format, args...)
}

func rateLimitError(format string, args ...any) error {
	return newError(KindRateLimit, format, args...)
}

func deniedError(format string, args ...any) error {
	return newError(KindPermissionDenied, format, args...)
}

// NewError builds a domain error of kind for checks made outside the
// aggregates, such as membership authorisation.
func NewError(kind ErrorKind, format string, args ...any) error {
	return newError(kind, format, args...)
}

// NotFoundError is raised by the application layer when a lookup comes back
// empty; aggregates never produce it.
func NotFoundError(format string, args ...any) error {
	return newError(KindNotFound, format, args...)
}

// KindOf returns the kind of a domain error anywhere in err's chain, or ""
// when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
