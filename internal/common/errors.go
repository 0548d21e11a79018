package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	// ErrTokenUnavailable means no CSRF token could be obtained; the
	// authenticated call must not be attempted.
	ErrTokenUnavailable = errors.New("csrf token unavailable")

	// ErrNetworkUnavailable means no HTTP response was received at all.
	// Distinct from a response carrying a non-2xx status.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrRequestFailed means the backend answered with a non-success status.
	ErrRequestFailed = errors.New("request failed")

	// ErrValidation means a client-side precondition rejected the input
	// before any network call.
	ErrValidation = errors.New("validation failed")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInternal         = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// RequestError carries the backend's error body for a non-2xx response.
// The Reason string is surfaced to the user verbatim.
type RequestError struct {
	StatusCode int
	Reason     string
}

func (e *RequestError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("request failed (%d)", e.StatusCode)
}

func (e *RequestError) Unwrap() error { return ErrRequestFailed }

// UserMessage returns the text a caller should display next to the control
// that triggered the action.
func UserMessage(err error) string {
	var re *RequestError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &re) && re.Reason != "":
		return re.Reason
	case errors.Is(err, ErrTokenUnavailable):
		return "Missing cookies."
	case errors.Is(err, ErrNetworkUnavailable):
		return "Could not reach the server, please try again."
	}
	return err.Error()
}
