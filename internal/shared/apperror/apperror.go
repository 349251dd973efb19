// Package apperror defines the error kinds every domain operation reports.
// The HTTP layer maps a Kind to a status code; nothing else inspects messages.
package apperror

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindNotFound        Kind = "NOT_FOUND"
	KindBadRequest      Kind = "BAD_REQUEST"
	KindConflict        Kind = "CONFLICT"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindInternal        Kind = "INTERNAL"
)

// AppError is a classified domain error.
// Code is a stable machine readable identifier ("BOOK_NOT_FOUND"),
// Message is safe to show to the caller.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError with the same kind and code, so copies made by
// Wrap or WithDetails still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *AppError) Wrap(cause error) *AppError {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithDetails returns a copy of e carrying field level details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a different caller facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	cp := *e
	cp.Message = msg
	return &cp
}

func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func Unauthenticated(code, message string) *AppError {
	return New(KindUnauthenticated, code, message)
}

func NotFound(code, message string) *AppError {
	return New(KindNotFound, code, message)
}

func BadRequest(code, message string) *AppError {
	return New(KindBadRequest, code, message)
}

func Conflict(code, message string) *AppError {
	return New(KindConflict, code, message)
}

func RateLimited(code, message string) *AppError {
	return New(KindRateLimited, code, message)
}

// Validation wraps an ozzo-validation error (or any field error map) as BadRequest.
func Validation(err error) *AppError {
	return &AppError{
		Kind:    KindBadRequest,
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
		Details: err,
		Err:     err,
	}
}

// As extracts the AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies err. Anything unclassified is Internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
