package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRemote       Kind = "remote"
)

type Error struct {
	Kind       Kind
	Code       string
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, StatusCode: status}
}

func Validation(code, message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(code, message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return newError(KindConflict, http.StatusConflict, code, message)
}

// Remote wraps a data-store or downstream failure. The underlying text is kept
// so it can be surfaced to staff.
func Remote(message string, err error) *Error {
	e := newError(KindRemote, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	e.Err = err
	if err != nil {
		e.Details = map[string]any{"cause": err.Error()}
	}
	return e
}

func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
