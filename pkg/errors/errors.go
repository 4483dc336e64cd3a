// Package errors defines the application error rendered in API error
// envelopes. Services return these; handlers pass them to response.Error.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError pairs a stable machine-readable code with the HTTP status and the
// message shown to clients. Internal is logged but never serialised.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on code and status, so copies made by WithInternal or
// WithDetails still match the sentinel they came from.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if e == nil || !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Code == other.Code && e.StatusCode == other.StatusCode
}

// WithInternal returns a copy carrying the underlying cause.
func (e *AppError) WithInternal(err error) *AppError {
	return e.with(func(cpy *AppError) { cpy.Internal = err })
}

// WithDetails returns a copy carrying structured context for the client,
// such as per-field validation failures.
func (e *AppError) WithDetails(details any) *AppError {
	return e.with(func(cpy *AppError) { cpy.Details = details })
}

func (e *AppError) with(mutate func(*AppError)) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	mutate(&cpy)
	return &cpy
}

// Sentinels shared across services. Domain packages declare their own codes
// with New.
var (
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrBadRequest         = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	ErrValidation         = New("VALIDATION_FAILED", "Request payload failed validation", http.StatusBadRequest)
	ErrConflict           = New("CONFLICT", "Request conflicts with current state", http.StatusConflict)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrServiceUnavailable = New("SERVICE_UNAVAILABLE", "Service temporarily unavailable", http.StatusServiceUnavailable)
)

// New declares an application error.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap reports err as an internal failure with a client-safe message.
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   err,
	}
}

// FromError finds the AppError in err's chain, falling back to
// ErrInternalServer with err attached.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest reports a malformed request with a specific message.
func NewBadRequest(message string) *AppError {
	return New(ErrBadRequest.Code, message, ErrBadRequest.StatusCode)
}

// NewValidation reports field failures. details is rendered as-is.
func NewValidation(message string, details any) *AppError {
	return New(ErrValidation.Code, message, ErrValidation.StatusCode).WithDetails(details)
}

// NewConflict reports a state conflict with a specific message.
func NewConflict(message string) *AppError {
	return New(ErrConflict.Code, message, ErrConflict.StatusCode)
}
