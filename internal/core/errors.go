package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Rejected builds a SERVER_REJECTED error carrying the service's detail
// message verbatim, so it can be surfaced to the user unchanged.
func Rejected(detail string) *Error {
	return &Error{Code: ErrServerRejected.Code, Message: detail}
}

// Invalid builds a VALIDATION_FAILED error with a field-specific message.
func Invalid(msg string) *Error {
	return &Error{Code: ErrValidationFailed.Code, Message: msg}
}

// Predefined errors
var (
	// Submission errors
	ErrValidationFailed = &Error{Code: "VALIDATION_FAILED", Message: "run configuration invalid"}
	ErrServerRejected   = &Error{Code: "SERVER_REJECTED", Message: "backtest rejected by service"}
	ErrSubmitBusy       = &Error{Code: "SUBMIT_BUSY", Message: "a submission is already in progress"}

	// Gateway errors
	ErrServiceUnavailable = &Error{Code: "SERVICE_UNAVAILABLE", Message: "backtest service unavailable"}
	ErrNotFound           = &Error{Code: "NOT_FOUND", Message: "resource not found"}

	// Export errors
	ErrExportFailed = &Error{Code: "EXPORT_FAILED", Message: "report export failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
