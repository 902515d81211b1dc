package core

import "fmt"

// BlockStatus represents the execution status of a block or a whole validation
type BlockStatus int

const (
	StatusPending BlockStatus = iota // Not yet started
	StatusRunning                    // Currently executing
	StatusPassed                     // Completed successfully
	StatusFailed                     // Handler returned an error
	StatusSkipped                    // Disabled, or not reached after an earlier failure
)

// String returns the string representation of BlockStatus
func (s BlockStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name for JSON/YAML reports.
func (s BlockStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name written by MarshalText.
func (s *BlockStatus) UnmarshalText(text []byte) error {
	for st := StatusPending; st <= StatusSkipped; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// IsTerminal returns true if the status is a final state
func (s BlockStatus) IsTerminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from s to next is allowed.
// pending -> running | skipped, running -> passed | failed.
func (s BlockStatus) CanTransition(next BlockStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusSkipped
	case StatusRunning:
		return next == StatusPassed || next == StatusFailed
	default:
		return false
	}
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategorySelector                        // Unknown field, bad index, empty collection
	ErrCategoryAssertion                       // Matcher or boolean check mismatch
	ErrCategoryDocument                        // Malformed document: unknown block/operator/check
	ErrCategoryScript                          // Custom code failed
	ErrCategoryInvocation                      // Screen member could not be called
	ErrCategoryUnknown                         // Not an ExecutionError (driver errors, etc.)
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategorySelector:
		return "selector"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryDocument:
		return "document"
	case ErrCategoryScript:
		return "script"
	case ErrCategoryInvocation:
		return "invocation"
	default:
		return "unknown"
	}
}

// MarshalText encodes the category by name.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name written by MarshalText.
func (c *ErrorCategory) UnmarshalText(text []byte) error {
	for cat := ErrCategoryNone; cat <= ErrCategoryUnknown; cat++ {
		if cat.String() == string(text) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("unknown error category %q", text)
}
