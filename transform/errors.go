package transform

import (
	"errors"
	"fmt"
)

// ErrUnknownFrame is returned when Options.Frame names no known emitter.
var ErrUnknownFrame = errors.New("unknown frame")

// Category classifies transform failures for the host's reporting.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryHook   Category = "hook"
	CategoryRender Category = "render"
	CategoryEmit   Category = "emit"
)

// Error is a classified transform failure. Unwrap exposes the cause unchanged.
type Error struct {
	Category Category `json:"category"`
	ID       string   `json:"id,omitempty"`
	Message  string   `json:"message"`
	Cause    error    `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.ID != "" {
		msg = fmt.Sprintf("%s: %s", e.ID, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.Category, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Category)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func wrap(err error, category Category, id, message string) *Error {
	return &Error{Category: category, ID: id, Message: message, Cause: err}
}

// IsCategory reports whether err, or any error it wraps, is an *Error of the
// given category.
func IsCategory(err error, category Category) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == category
}
