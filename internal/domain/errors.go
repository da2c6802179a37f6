package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthRequired      = errors.New("authentication required")
	ErrAuth              = errors.New("authentication rejected")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNetwork           = errors.New("network error")
	ErrHTTP              = errors.New("http error")

	ErrTogglePending  = errors.New("favorite toggle already in progress")
	ErrSuperseded     = errors.New("superseded by a newer request")
	ErrNoAdjacentPage = errors.New("no adjacent page")
)

// Error is a classified failure of a remote call.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a classified error.
func NewError(kind error, op string, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Status: status, Message: message, Err: cause}
}

// UserMessage returns the text suitable for inline display next to a control.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
