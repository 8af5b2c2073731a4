package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Mull error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrMailboxUnavailable ErrorCode = "MAILBOX_UNAVAILABLE" // 502
	ErrAgentFailed        ErrorCode = "AGENT_FAILED"        // 502
	ErrNotConfigured      ErrorCode = "NOT_CONFIGURED"      // 503
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// MullError represents a structured error with code, status, and details.
type MullError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the wrapped error, if any. Never serialized.
	cause error
}

// Error implements the error interface.
func (e *MullError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *MullError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *MullError {
	return &MullError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a message the mailbox does not have.
func NewNotFound(id string) *MullError {
	return &MullError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("message not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewMailboxUnavailable creates a 502 error when the mailbox provider fails.
func NewMailboxUnavailable(op string, err error) *MullError {
	return &MullError{
		Code:    ErrMailboxUnavailable,
		Status:  502,
		Message: fmt.Sprintf("mailbox %s failed", op),
		Details: map[string]any{"operation": op},
		cause:   err,
	}
}

// NewAgentFailed creates a 502 error when the reasoning component fails.
func NewAgentFailed(err error) *MullError {
	return &MullError{
		Code:    ErrAgentFailed,
		Status:  502,
		Message: "agent did not respond",
		cause:   err,
	}
}

// NewNotConfigured creates a 503 error when a collaborator is missing.
func NewNotConfigured(what string) *MullError {
	return &MullError{
		Code:    ErrNotConfigured,
		Status:  503,
		Message: fmt.Sprintf("%s is not configured", what),
		Details: map[string]any{"component": what},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *MullError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &MullError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a MullError with the given code.
func Is(err error, code ErrorCode) bool {
	var mErr *MullError
	if stderrors.As(err, &mErr) {
		return mErr.Code == code
	}
	return false
}

// As returns err as a MullError, wrapping foreign errors as internal.
func As(err error) *MullError {
	var mErr *MullError
	if stderrors.As(err, &mErr) {
		return mErr
	}
	return NewInternal(err)
}
