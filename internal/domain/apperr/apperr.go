// Package apperr holds the error taxonomy shared by every credit operation.
//
// Callers classify failures with errors.Is against the three kinds below; the
// message of an *Error is meant for humans only.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: malformed, missing or inconsistent input. Never retried automatically.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound: the referenced record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict: illegal state transition or a lost concurrent write. Retry with fresh state.
	ErrConflict = errors.New("conflict")
)

type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// Message returns the human part of err, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
