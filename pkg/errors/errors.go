package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("rate limited")
	ErrInternalServer     = errors.New("internal server error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Error codes, one per failure class surfaced to callers.
const (
	CodeValidation      = "validation"
	CodeTransport       = "transport"
	CodeApplication     = "application"
	CodeMedia           = "media"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeRateLimited     = "rate_limited"
	CodeNotFound        = "not_found"
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Field   string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports bad local input. It is raised before any network call.
func Validation(field, message string) error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
		Err:     ErrInvalidInput,
	}
}

// Unauthenticated reports a mutation attempted without a session.
func Unauthenticated(message string) error {
	return &Error{
		Code:    CodeUnauthenticated,
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// Forbidden reports a signed-in user acting on something they do not own.
func Forbidden(message string) error {
	return &Error{
		Code:    CodeForbidden,
		Message: message,
		Err:     ErrForbidden,
	}
}

// RateLimited reports a mutation rejected by the local limiter.
func RateLimited(key string) error {
	return &Error{
		Code:    CodeRateLimited,
		Message: fmt.Sprintf("too many requests for %s, slow down", key),
		Err:     ErrRateLimited,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetField returns the offending field of a validation error.
func GetField(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsValidation returns true if the error was raised by local validation
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized returns true if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden returns true if the acting user does not own the target
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsRateLimited returns true if the error came from the mutation limiter
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
