// Package apperror defines the error kinds shared by stores and handlers.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Error carries a user-facing message alongside one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NotFound(resource string, id int64) *Error {
	return &Error{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s %d not found", resource, id),
	}
}

func Validation(field, message string) *Error {
	return &Error{
		Kind:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports an invariant violation, e.g. joining a household while
// already in one. Nothing is changed when it is returned.
func Conflict(message string) *Error {
	return &Error{
		Kind:    ErrConflict,
		Message: message,
	}
}

func Forbidden(message string) *Error {
	return &Error{
		Kind:    ErrForbidden,
		Message: message,
	}
}

// Message returns the user-facing text of err if it is an *Error, else "".
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
