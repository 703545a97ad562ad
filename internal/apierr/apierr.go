// Package apierr is the error taxonomy shared by every service backend.
// Callers branch with errors.Is against the sentinel kinds and read wire
// details through As/CodeOf/Message.
package apierr

import (
	"errors"
	"fmt"

	"github.com/wisekey/langcenter/internal/response"
)

// Error kinds.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrServer             = errors.New("server error")
	ErrNetwork            = errors.New("network error")
)

// Error is a classified failure. Kind is always one of the sentinels above.
type Error struct {
	Kind    error
	Status  int
	Code    response.ErrCode
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.kind().Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is matches the error's kind, so errors.Is(err, ErrNotFound) works on
// wrapped *Error values.
func (e *Error) Is(target error) bool {
	return target == e.kind()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) kind() error {
	if e.Kind == nil {
		return ErrServer
	}
	return e.Kind
}

// New builds an *Error. An empty message falls back to the code's text.
func New(kind error, code response.ErrCode, message string) *Error {
	if message == "" && code != "" {
		message = response.GetMessage(code)
	}
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation builds a field-level validation error.
func Validation(fields map[string]string) *Error {
	e := New(ErrValidation, response.ErrValidation, "")
	e.Fields = fields
	return e
}

// NotFound reports a missing resource by name and id.
func NotFound(resource string, id int64) *Error {
	return New(ErrNotFound, response.ErrNotFound, fmt.Sprintf("%s %d not found", resource, id))
}

// Conflict reports a natural-key collision.
func Conflict(message string) *Error {
	return New(ErrValidation, response.ErrConflict, message)
}

// KindOf returns the sentinel kind of err, or nil if err is not classified.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.kind()
	}
	return nil
}

// CodeOf returns the wire code carried by err, or "" if none.
func CodeOf(err error) response.ErrCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Message renders err for display to an end user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return response.GetMessage(e.Code)
	}
	return e.kind().Error()
}
