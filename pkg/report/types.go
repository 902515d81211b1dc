// Package report writes the JSON run report.
//
// report.json holds one entry per document with its block results. The
// IndexWriter rewrites it as documents start and finish, so a consumer can
// poll the file while a long run is in progress.
package report

import (
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// StatusOf maps a block status onto the report vocabulary.
func StatusOf(s core.BlockStatus) Status {
	switch s {
	case core.StatusRunning:
		return StatusRunning
	case core.StatusPassed:
		return StatusPassed
	case core.StatusFailed:
		return StatusFailed
	case core.StatusSkipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// Index is the report.json document.
type Index struct {
	Version     string          `json:"version"`
	UpdateSeq   uint64          `json:"updateSeq"`
	Status      Status          `json:"status"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     *time.Time      `json:"endTime,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Runner      RunnerInfo      `json:"runner"`
	Summary     Summary         `json:"summary"`
	Documents   []DocumentEntry `json:"documents"`
}

// RunnerInfo describes the binary that produced the report.
type RunnerInfo struct {
	Version string `json:"version"`
	Backend string `json:"backend"`
	Fixture string `json:"fixture,omitempty"`
}

// Summary contains aggregated document counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// DocumentEntry is the report entry for one document.
type DocumentEntry struct {
	Index      int          `json:"index"`
	Name       string       `json:"name"`
	SourceFile string       `json:"sourceFile,omitempty"`
	Status     Status       `json:"status"`
	StartTime  *time.Time   `json:"startTime,omitempty"`
	Duration   *int64       `json:"duration,omitempty"` // milliseconds
	Blocks     BlockSummary `json:"blocks"`
	Error      *string      `json:"error,omitempty"`

	// Result is the full validation outcome, set once the document ends.
	Result *core.ValidationResult `json:"result,omitempty"`
}

// BlockSummary contains block counts for a document.
type BlockSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}
