// Package errors carries the fatal-input error type used across the risk
// core. Rejected orders are not errors: guardrail violations, risk-policy
// failures and a tripped breaker are structured results returned to the
// caller. This package is reserved for conditions that indicate a bug
// upstream, such as a non-finite price arriving from the execution layer.
package errors

import "fmt"

// ErrorCategory separates input bugs from operational failures.
type ErrorCategory string

const (
	// ErrorCategoryInput marks malformed data from a collaborator:
	// non-positive quantity, NaN/Inf price, missing required field.
	ErrorCategoryInput ErrorCategory = "INPUT"

	// ErrorCategoryState marks impossible internal state, such as a
	// close request for an unknown position id.
	ErrorCategoryState ErrorCategory = "STATE"

	// ErrorCategoryConfig marks invalid configuration discovered at
	// construction time.
	ErrorCategoryConfig ErrorCategory = "CONFIG"

	// ErrorCategoryStorage marks persistence failures (snapshot
	// save/load), which happen outside the approval path.
	ErrorCategoryStorage ErrorCategory = "STORAGE"
)

// CoreError is a categorized error with the component and operation that
// raised it, so a log line alone locates the offending call site.
type CoreError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error indicates an upstream bug rather than
// a recoverable operational failure.
func (e *CoreError) IsFatal() bool {
	return e.Category == ErrorCategoryInput || e.Category == ErrorCategoryState
}

// New creates a categorized core error.
func New(category ErrorCategory, component, operation, message string) *CoreError {
	return &CoreError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Newf creates a categorized core error with a formatted message.
func Newf(category ErrorCategory, component, operation, format string, args ...interface{}) *CoreError {
	return New(category, component, operation, fmt.Sprintf(format, args...))
}

// Wrap attaches category and call-site context to an existing error.
// Returns nil when err is nil.
func Wrap(err error, category ErrorCategory, component, operation string) *CoreError {
	if err == nil {
		return nil
	}
	return &CoreError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewInputError flags malformed collaborator input.
func NewInputError(component, operation, message string) *CoreError {
	return New(ErrorCategoryInput, component, operation, message)
}

// NewStateError flags an impossible internal state.
func NewStateError(component, operation, message string) *CoreError {
	return New(ErrorCategoryState, component, operation, message)
}

// NewConfigError flags invalid configuration.
func NewConfigError(component, operation, message string) *CoreError {
	return New(ErrorCategoryConfig, component, operation, message)
}
