// Package apperrors defines the error taxonomy shared by the storage layer,
// the coordinator and the HTTP handlers. Each error carries the status code
// the HTTP layer should answer with.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeClientInput       Code = "CLIENT_INPUT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUpstream          Code = "UPSTREAM"
	CodeLocalIO           Code = "LOCAL_IO"
	CodeUnsupportedSource Code = "UNSUPPORTED_SOURCE"
	CodeRejected          Code = "REJECTED"
)

// AppError is the error type returned across package boundaries.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func newError(code Code, status int, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), HTTPStatus: status}
}

// ClientInput reports a malformed or missing request payload.
func ClientInput(format string, args ...any) *AppError {
	return newError(CodeClientInput, http.StatusBadRequest, format, args...)
}

// NotFound reports an id missing from metadata or an object missing remotely.
func NotFound(format string, args ...any) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, format, args...)
}

// Upstream reports a remote backend failure other than not-found.
func Upstream(format string, args ...any) *AppError {
	return newError(CodeUpstream, http.StatusInternalServerError, format, args...)
}

// LocalIO reports a filesystem failure.
func LocalIO(format string, args ...any) *AppError {
	return newError(CodeLocalIO, http.StatusInternalServerError, format, args...)
}

// UnsupportedSource reports a record whose backend is not usable right now.
func UnsupportedSource(format string, args ...any) *AppError {
	return newError(CodeUnsupportedSource, http.StatusBadRequest, format, args...)
}

// Rejected reports an upload refused by content policy (e.g. malware).
func Rejected(format string, args ...any) *AppError {
	return newError(CodeRejected, http.StatusUnprocessableEntity, format, args...)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err's chain holds an AppError with the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps err to a response status; unknown errors are 500.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err.
func Message(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Message
	}
	return "internal error"
}
