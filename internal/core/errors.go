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

// Predefined errors
var (
	// Data errors: a symbol with no usable history degrades to the no_data
	// result path, it never aborts the batch.
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no price history available"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient history for feature"}
	ErrMalformedBar     = &Error{Code: "MALFORMED_BAR", Message: "price bar violates OHLC invariants"}
	ErrCacheMiss        = &Error{Code: "CACHE_MISS", Message: "symbol not present in OHLCV cache"}

	// Document errors
	ErrDocumentInvalid = &Error{Code: "DOCUMENT_INVALID", Message: "scan document malformed"}

	// Config errors abort the whole run before any symbol is scored.
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
