// Package apperr defines the error taxonomy shared by the use cases.
// Callers match on the error kind instead of parsing message strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for caller-side handling.
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no kind.
	KindUnknown Kind = iota
	// KindInvalid marks bad input shape: unsupported file type, bad base64,
	// oversize payload, malformed patch. Surfaced immediately, never retried.
	KindInvalid
	// KindNotFound marks a missing account/budget/goal for the given user.
	KindNotFound
	// KindConflict marks a precondition failure such as a duplicate budget
	// for an overlapping period. No partial state is created.
	KindConflict
	// KindTransient marks storage or push-channel unavailability. Background
	// tasks retry these with bounded attempts.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a kinded error. It supports errors.Is/As and unwrapping.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %v", e.Msg, e.Err)
		}
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new kinded error with a plain message.
func E(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Errorf creates a new kinded error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an existing error.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInvalid reports whether err is an invalid-input error.
func IsInvalid(err error) bool { return KindOf(err) == KindInvalid }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
