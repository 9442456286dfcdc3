// Package apperror defines the domain error taxonomy shared by the service
// and repository layers. Handlers translate these sentinels into HTTP
// status codes in exactly one place (handler/response.go), so the rest of
// the codebase never touches net/http status constants.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a human-readable message alongside the sentinel it
// wraps. errors.Is(err, apperror.ErrNotFound) works through Unwrap.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // safe to show to API clients
	Field   string // optional: request field that caused a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Field:   fmt.Sprintf("%d", id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}

// Unauthorized returns an AppError for failed bearer authentication.
// The message is deliberately generic — it must not reveal which check
// failed or echo any part of the presented token.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
