// Package errors provides sentinel errors that can carry a wrapped
// cause while keeping a stable identity, so that status packages may
// export comparable constants and still chain the underlying failure.
package errors

import (
	stderr "errors"
)

var _ error = New("")

// New builds a sentinel error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error is a sentinel with an optional nested cause.
//
// Unlike fmt.Errorf("%w", ...), wrapping does not change the message:
// the sentinel keeps printing its own text and the cause remains
// reachable through Unwrap.
type Error struct {
	msg string
	err error
}

// Error message
func (e *Error) Error() string {
	return e.msg
}

// Unwrap the nested cause, if any
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a cause under this sentinel
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}

// Is reports whether this error or its direct cause matches target
func (e *Error) Is(target error) bool {
	return e == target || e.err == target
}

// As is a shortcut to the standard library errors.As
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is is a shortcut to the standard library errors.Is
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
