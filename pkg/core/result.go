package core

import "time"

// BlockResult captures the outcome of one block.
type BlockResult struct {
	Index int     `json:"index"` // position in execution order
	ID    string  `json:"id,omitempty"`
	Type  string  `json:"type"`
	Label string  `json:"label,omitempty"`
	Order float64 `json:"order"`

	Status   BlockStatus   `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// SetStatus moves the block to next if the transition is legal.
func (b *BlockResult) SetStatus(next BlockStatus) bool {
	if !b.Status.CanTransition(next) {
		return false
	}
	b.Status = next
	return true
}

// ValidationResult captures the complete outcome of validating one document.
type ValidationResult struct {
	ID     string `json:"id"`
	Screen string `json:"screen,omitempty"`
	Legacy bool   `json:"legacy,omitempty"`

	Status    BlockStatus   `json:"status"`
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	Blocks []BlockResult `json:"blocks"`

	// Variables is a snapshot of the variable store after the run.
	Variables map[string]interface{} `json:"variables,omitempty"`

	TotalBlocks   int `json:"totalBlocks"`
	PassedBlocks  int `json:"passedBlocks"`
	FailedBlocks  int `json:"failedBlocks"`
	SkippedBlocks int `json:"skippedBlocks"`

	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates block counts from the Blocks slice
func (r *ValidationResult) ComputeSummary() {
	r.TotalBlocks = len(r.Blocks)
	r.PassedBlocks = 0
	r.FailedBlocks = 0
	r.SkippedBlocks = 0

	for _, b := range r.Blocks {
		switch b.Status {
		case StatusPassed:
			r.PassedBlocks++
		case StatusFailed:
			r.FailedBlocks++
		case StatusSkipped, StatusPending:
			r.SkippedBlocks++
		}
	}
}

// Passed reports whether the validation succeeded.
func (r *ValidationResult) Passed() bool {
	return r.Status == StatusPassed
}
