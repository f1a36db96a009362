// Package errors provides the application error taxonomy and HTTP status
// mapping for the EMI admin API.
package errors

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// Code represents an application-specific error code.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodeAuthorization  Code = "AUTHORIZATION_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Error is an application error carrying a code and a correlation ID that is
// echoed back to the caller and written to the logs.
type Error struct {
	Message       string
	Code          Code
	CorrelationID string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(message string, code Code) *Error {
	return &Error{
		Message:       message,
		Code:          code,
		CorrelationID: uuid.New().String(),
	}
}

// Validation returns a VALIDATION_ERROR (HTTP 422).
func Validation(message string) *Error {
	return newError(message, CodeValidation)
}

// Authentication returns an AUTHENTICATION_ERROR (HTTP 401).
func Authentication(message string) *Error {
	return newError(message, CodeAuthentication)
}

// Authorization returns an AUTHORIZATION_ERROR (HTTP 403).
func Authorization(message string) *Error {
	return newError(message, CodeAuthorization)
}

// NotFound returns a NOT_FOUND error (HTTP 404).
func NotFound(message string) *Error {
	return newError(message, CodeNotFound)
}

// Conflict returns a CONFLICT error (HTTP 409).
func Conflict(message string) *Error {
	return newError(message, CodeConflict)
}

// Internal returns an INTERNAL_ERROR (HTTP 500).
func Internal(message string) *Error {
	return newError(message, CodeInternal)
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf extracts the application code from an error, defaulting to
// INTERNAL_ERROR for unclassified errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
