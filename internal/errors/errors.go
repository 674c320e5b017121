// Package errors defines the service error type shared by the store,
// the services and the HTTP layer. Every domain failure is an expected,
// recoverable condition translated 1:1 to a client-visible response.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a service error.
type ErrorCode string

const (
	CodeNotFound       ErrorCode = "not_found"
	CodeConflict       ErrorCode = "conflict"
	CodeLimitExceeded  ErrorCode = "limit_exceeded"
	CodeUnauthorized   ErrorCode = "unauthorized"
	CodeInvalidRequest ErrorCode = "invalid_request"
	CodeInternal       ErrorCode = "internal"
)

// Error is a domain error carrying the HTTP status and client message the
// transport layer should emit.
type Error struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound reports an absent entity.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusNotFound}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusBadRequest}
}

// LimitExceeded reports a length bound or exhausted allowance.
func LimitExceeded(format string, args ...interface{}) *Error {
	return &Error{Code: CodeLimitExceeded, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports a missing or wrong credential.
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusForbidden}
}

// InvalidRequest reports a malformed or unacceptable request.
func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusBadRequest}
}

// Internal reports an unexpected failure.
func Internal(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), HTTPStatus: http.StatusInternalServerError}
}

// GetServiceError extracts an *Error from err, unwrapping as needed.
// Returns nil when err carries no service error.
func GetServiceError(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return nil
}

// IsCode reports whether err is a service error with the given code.
func IsCode(err error, code ErrorCode) bool {
	e := GetServiceError(err)
	return e != nil && e.Code == code
}
