// Package apperr defines the coded errors shared by the identity, project
// and task services. Handlers translate a code into an HTTP status; the
// wrapped cause is kept for logs and never rendered to callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeForbidden             Code = "FORBIDDEN"
	CodeNotFound              Code = "NOT_FOUND"
	CodeDuplicateIdentity     Code = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeValidationFailed      Code = "VALIDATION_FAILED"
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	CodeInternal              Code = "INTERNAL"
)

// Error carries a code, a caller-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so errors.Is(err, apperr.Forbidden)
// works regardless of message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	Unauthorized          = New(CodeUnauthorized, "unauthorized")
	Forbidden             = New(CodeForbidden, "forbidden")
	NotFound              = New(CodeNotFound, "not found")
	DuplicateIdentity     = New(CodeDuplicateIdentity, "email already exists")
	InvalidCredentials    = New(CodeInvalidCredentials, "invalid email or password")
	ValidationFailed      = New(CodeValidationFailed, "validation failed")
	DependencyUnavailable = New(CodeDependencyUnavailable, "dependency unavailable")
	Internal              = New(CodeInternal, "internal error")
)

// New builds an error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause. A nil err yields nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Validation is shorthand for a VALIDATION_FAILED error with a field message.
func Validation(message string) *Error {
	return New(CodeValidationFailed, message)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its response status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicateIdentity:
		return http.StatusConflict
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller. Internal errors
// and foreign errors collapse to a generic message.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Code == CodeInternal {
		return Internal.Message
	}
	return e.Message
}
