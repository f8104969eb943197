package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited  ErrorCode = "RATE_LIMITED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalidf builds a validation error with a formatted message.
func Invalidf(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Conflictf builds a state-conflict error with a formatted message.
func Conflictf(format string, args ...interface{}) *Error {
	return NewError(ErrCodeConflict, fmt.Sprintf(format, args...))
}

// Forbiddenf builds an authorization error with a formatted message.
func Forbiddenf(format string, args ...interface{}) *Error {
	return NewError(ErrCodeForbidden, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrUserNotFound         = NewError(ErrCodeNotFound, "user not found")
	ErrOccurrenceNotFound   = NewError(ErrCodeNotFound, "occurrence not found")
	ErrDepartmentNotFound   = NewError(ErrCodeNotFound, "department not found")
	ErrCategoryNotFound     = NewError(ErrCodeNotFound, "category not found")
	ErrNotificationNotFound = NewError(ErrCodeNotFound, "notification not found")
	ErrSessionNotFound      = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials   = NewError(ErrCodeUnauthorized, "invalid credentials")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidRating        = NewError(ErrCodeInvalid, "rating must be between 1 and 5")
	ErrAlreadyStarted       = NewError(ErrCodeConflict, "execution already started")
	ErrAlreadyEvaluated     = NewError(ErrCodeConflict, "occurrence already evaluated")
	ErrAlreadySupported     = NewError(ErrCodeConflict, "occurrence already supported by this citizen")
	ErrEmailTaken           = NewError(ErrCodeConflict, "email already registered")
	ErrNotReporter          = NewError(ErrCodeForbidden, "only the reporting citizen can perform this action")
	ErrWrongDepartment      = NewError(ErrCodeForbidden, "occurrence belongs to another department")
	ErrRateLimited          = NewError(ErrCodeRateLimited, "rate limit exceeded")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
