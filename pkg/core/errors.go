package core

import (
	"errors"
	"fmt"
	"strings"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: field_not_found, no_elements, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (expected/actual, field names, ...)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// This lets callers write errors.Is(err, core.ErrNoElements) against copies
// produced by WithMessage/WithCause.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := e.clone()
	c.Details = merged
	return c
}

func (e *ExecutionError) clone() *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// Predefined errors. Use the With* helpers to derive instances; compare with errors.Is.
var (
	// Selector errors
	ErrFieldNotFound = &ExecutionError{
		Category: ErrCategorySelector,
		Code:     "field_not_found",
		Message:  "field not found on screen",
	}
	ErrIndexOutOfBounds = &ExecutionError{
		Category: ErrCategorySelector,
		Code:     "index_out_of_bounds",
		Message:  "index out of bounds",
	}
	ErrNoElements = &ExecutionError{
		Category: ErrCategorySelector,
		Code:     "no_elements",
		Message:  "selector matched no elements",
	}
	ErrCountUnknown = &ExecutionError{
		Category: ErrCategorySelector,
		Code:     "count_unknown",
		Message:  "cannot determine element count for parameterized locator",
	}

	// Document errors
	ErrUnknownBlockType = &ExecutionError{
		Category: ErrCategoryDocument,
		Code:     "unknown_block_type",
		Message:  "unknown block type",
	}
	ErrUnknownOperator = &ExecutionError{
		Category: ErrCategoryDocument,
		Code:     "unknown_operator",
		Message:  "unknown operator",
	}
	ErrUnknownAssertionType = &ExecutionError{
		Category: ErrCategoryDocument,
		Code:     "unknown_assertion_type",
		Message:  "unknown assertion type",
	}
	ErrUnknownCustomCode = &ExecutionError{
		Category: ErrCategoryDocument,
		Code:     "unknown_custom_code",
		Message:  "no custom code registered",
	}
	ErrInvalidDocument = &ExecutionError{
		Category: ErrCategoryDocument,
		Code:     "invalid_document",
		Message:  "invalid expectation document",
	}

	// Assertion errors
	ErrAssertionFailure = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}

	// Invocation errors
	ErrCustomCode = &ExecutionError{
		Category: ErrCategoryScript,
		Code:     "custom_code_failed",
		Message:  "custom code failed",
	}
	ErrMethodNotFound = &ExecutionError{
		Category: ErrCategoryInvocation,
		Code:     "method_not_found",
		Message:  "method not found",
	}
	ErrInvocation = &ExecutionError{
		Category: ErrCategoryInvocation,
		Code:     "invocation_failed",
		Message:  "member invocation failed",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// FieldNotFound builds ErrFieldNotFound listing the fields the screen does expose.
func FieldNotFound(field string, known []string) *ExecutionError {
	msg := fmt.Sprintf("field %q not found on screen", field)
	if len(known) > 0 {
		msg += "; available: " + strings.Join(known, ", ")
	}
	return ErrFieldNotFound.WithMessage(msg).WithDetails(map[string]interface{}{
		"field": field,
		"known": known,
	})
}

// AssertionFailed builds ErrAssertionFailure carrying both sides of the comparison.
func AssertionFailed(msg string, expected, actual interface{}) *ExecutionError {
	return ErrAssertionFailure.WithMessage(msg).WithDetails(map[string]interface{}{
		"expected": expected,
		"actual":   actual,
	})
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Category
	}
	if err != nil {
		return ErrCategoryUnknown
	}
	return ErrCategoryNone
}

// BlockError reports the first block that failed a validation.
type BlockError struct {
	Index int    // 0-based position in execution order
	Total int    // number of blocks in the document
	ID    string // block id
	Label string // block label, falls back to id/type
	Cause error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d of %d failed: %s: %v", e.Index+1, e.Total, e.Label, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BlockError) Unwrap() error {
	return e.Cause
}
