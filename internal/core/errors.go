package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation     ErrorCategory = "validation"     // Invalid input
	ErrCatClassification ErrorCategory = "classification" // Bad classification data
	ErrCatDispatch       ErrorCategory = "dispatch"       // Agent dispatch failure
	ErrCatEscalation     ErrorCategory = "escalation"     // Notification delivery
	ErrCatLLM            ErrorCategory = "llm"            // Structured-decision client
	ErrCatState          ErrorCategory = "state"          // State corruption/conflict
	ErrCatConfig         ErrorCategory = "config"         // Bad configuration
	ErrCatNotFound       ErrorCategory = "not_found"      // Resource not found
	ErrCatInternal       ErrorCategory = "internal"       // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error { return e.Cause }

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{Category: ErrCatValidation, Code: code, Message: message}
}

// ErrClassification creates a classification data error.
func ErrClassification(code, message string) *DomainError {
	return &DomainError{Category: ErrCatClassification, Code: code, Message: message}
}

// ErrDispatch creates a dispatch error.
func ErrDispatch(code, message string) *DomainError {
	return &DomainError{Category: ErrCatDispatch, Code: code, Message: message, Retryable: true}
}

// ErrEscalation creates an escalation delivery error.
func ErrEscalation(message string) *DomainError {
	return &DomainError{Category: ErrCatEscalation, Code: "DELIVERY_FAILED", Message: message, Retryable: true}
}

// ErrLLM creates a structured-decision client error.
func ErrLLM(code, message string) *DomainError {
	return &DomainError{Category: ErrCatLLM, Code: code, Message: message, Retryable: true}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{Category: ErrCatState, Code: code, Message: message}
}

// ErrConfig creates a configuration error.
func ErrConfig(code, message string) *DomainError {
	return &DomainError{Category: ErrCatConfig, Code: code, Message: message}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category: ErrCatNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes.
const (
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeMissingClass       = "MISSING_CLASSIFICATION"
	CodeMissingActiveTask  = "MISSING_ACTIVE_TASK"
	CodeAgentUnavailable   = "AGENT_UNAVAILABLE"
	CodeUnsupportedChannel = "UNSUPPORTED_CHANNEL"
	CodeInvalidConfig      = "INVALID_CONFIG"
	CodeStateCorrupted     = "STATE_CORRUPTED"
)
