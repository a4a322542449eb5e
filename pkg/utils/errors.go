package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeDataUnavailable = "DATA_UNAVAILABLE"
	ErrCodeUpstreamFetch   = "UPSTREAM_FETCH_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation      = &AppError{Code: ErrCodeValidation, Message: "invalid request"}
	ErrDataUnavailable = &AppError{Code: ErrCodeDataUnavailable, Message: "data unavailable"}
	ErrUpstreamFetch   = &AppError{Code: ErrCodeUpstreamFetch, Message: "upstream fetch failed"}
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	cause error
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// NewValidationError reports bad request parameters.
func NewValidationError(message string, details ...string) *AppError {
	return NewAppError(ErrCodeValidation, message, details...)
}

// NewDataUnavailable reports that no statistics exist for the requested period.
func NewDataUnavailable(message string, cause error) *AppError {
	return NewAppError(ErrCodeDataUnavailable, message).WithCause(cause)
}

// NewUpstreamFetchError reports an unreachable provider or a payload it could
// not read. Details stay empty; the cause is reachable through Error and Unwrap.
func NewUpstreamFetchError(message string, cause error) *AppError {
	return NewAppError(ErrCodeUpstreamFetch, message).WithCause(cause)
}

// WithCause attaches cause for logging and errors.Is without exposing it in Details.
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Details != "" {
		msg += " - " + e.Details
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError with the same code, so errors.Is(err, ErrValidation)
// works for every validation error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// AsAppError extracts the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusFor maps an error kind to the HTTP status the API answers with.
func StatusFor(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeDataUnavailable, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUpstreamFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
