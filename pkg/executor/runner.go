package executor

import (
	"context"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
)

// RunnerConfig configures a multi-document run.
type RunnerConfig struct {
	StopOnFail bool // Skip remaining documents after the first failure

	// ResetBetween clears the variable store before every document.
	// Otherwise values captured by one document are visible to the next.
	ResetBetween bool

	// Live progress callbacks
	OnDocumentStart func(docIdx, totalDocs int, name string)
	OnDocumentEnd   func(name string, passed bool, duration time.Duration)
}

// RunResult contains the outcome of a multi-document run.
type RunResult struct {
	Status           core.BlockStatus `json:"status"`
	TotalDocuments   int              `json:"totalDocuments"`
	PassedDocuments  int              `json:"passedDocuments"`
	FailedDocuments  int              `json:"failedDocuments"`
	SkippedDocuments int              `json:"skippedDocuments"`
	Duration         time.Duration    `json:"duration"`
	Documents        []DocumentResult `json:"documents"`
}

// DocumentResult is the outcome of one document.
type DocumentResult struct {
	Name   string                 `json:"name"`
	Result *core.ValidationResult `json:"result,omitempty"` // nil when skipped
	Status core.BlockStatus       `json:"status"`
	Error  string                 `json:"error,omitempty"`
}

// Runner validates documents one after another with a single interpreter.
type Runner struct {
	config RunnerConfig
	interp *Interpreter
}

// NewRunner creates a Runner.
func NewRunner(interp *Interpreter, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		interp: interp,
	}
}

// Run validates every document. Document failures are reported in the
// result; the returned error is only set for a nil document.
func (r *Runner) Run(ctx context.Context, docs []*expectation.Document, testData map[string]interface{}) (*RunResult, error) {
	results := make([]DocumentResult, len(docs))
	stop := false

	for i, doc := range docs {
		if doc == nil {
			return nil, core.ErrInvalidDocument.WithMessagef("document %d is nil", i+1)
		}
		name := doc.Name()
		if stop || ctx.Err() != nil {
			results[i] = DocumentResult{Name: name, Status: core.StatusSkipped, Error: "run stopped"}
			continue
		}

		if r.config.OnDocumentStart != nil {
			r.config.OnDocumentStart(i, len(docs), name)
		}
		if r.config.ResetBetween {
			r.interp.Reset()
		}

		res, err := r.interp.Validate(ctx, doc, testData)
		dr := DocumentResult{Name: name, Result: res, Status: core.StatusPassed}
		if err != nil {
			dr.Status = core.StatusFailed
			dr.Error = err.Error()
			stop = r.config.StopOnFail
		}
		results[i] = dr

		if r.config.OnDocumentEnd != nil {
			r.config.OnDocumentEnd(name, err == nil, res.Duration)
		}
	}
	return buildRunResult(results), nil
}

// buildRunResult aggregates document results into a run result.
func buildRunResult(docs []DocumentResult) *RunResult {
	result := &RunResult{
		TotalDocuments: len(docs),
		Documents:      docs,
	}

	for _, d := range docs {
		if d.Result != nil {
			result.Duration += d.Result.Duration
		}
		switch d.Status {
		case core.StatusPassed:
			result.PassedDocuments++
		case core.StatusFailed:
			result.FailedDocuments++
		case core.StatusSkipped:
			result.SkippedDocuments++
		}
	}

	if result.FailedDocuments > 0 {
		result.Status = core.StatusFailed
	} else {
		result.Status = core.StatusPassed // All passed or skipped
	}
	return result
}
