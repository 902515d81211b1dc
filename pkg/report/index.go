package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
)

// IndexWriter provides thread-safe updates to the report index. Every
// update is flushed to report.json immediately.
type IndexWriter struct {
	mu    sync.Mutex
	path  string
	index *Index
	err   error
}

// NewIndexWriter creates a new IndexWriter.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	return &IndexWriter{
		path:  filepath.Join(outputDir, "report.json"),
		index: index,
	}
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	w.flushLocked()
}

// DocumentStart marks document idx as running.
func (w *IndexWriter) DocumentStart(idx int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.entry(idx)
	if d == nil {
		return
	}
	now := time.Now()
	d.Status = StatusRunning
	d.StartTime = &now
	w.flushLocked()
}

// DocumentEnd records the outcome of document idx. A nil result marks the
// document skipped.
func (w *IndexWriter) DocumentEnd(idx int, result *core.ValidationResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	d := w.entry(idx)
	if d == nil {
		return
	}
	if result == nil {
		d.Status = StatusSkipped
		w.flushLocked()
		return
	}

	ms := result.Duration.Milliseconds()
	d.Status = StatusOf(result.Status)
	d.Duration = &ms
	d.Blocks = BlockSummary{
		Total:   result.TotalBlocks,
		Passed:  result.PassedBlocks,
		Failed:  result.FailedBlocks,
		Skipped: result.SkippedBlocks,
	}
	if result.Error != "" {
		msg := result.Error
		d.Error = &msg
	}
	d.Result = result
	w.flushLocked()
}

// End marks the run as complete. Documents never started are skipped.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.index.Documents {
		if !w.index.Documents[i].Status.IsTerminal() {
			w.index.Documents[i].Status = StatusSkipped
		}
	}
	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = computeRunStatus(w.index.Documents)
	w.flushLocked()
}

// GetIndex returns the current index.
func (w *IndexWriter) GetIndex() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

// Err returns the first write error, if any.
func (w *IndexWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *IndexWriter) entry(idx int) *DocumentEntry {
	if idx < 0 || idx >= len(w.index.Documents) {
		return nil
	}
	return &w.index.Documents[idx]
}

// flushLocked flushes while holding the lock.
func (w *IndexWriter) flushLocked() {
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = summarize(w.index.Documents)

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Error("write report %s: %v", w.path, err)
		if w.err == nil {
			w.err = err
		}
	}
}

// summarize calculates the summary from document statuses.
func summarize(docs []DocumentEntry) Summary {
	var s Summary
	for _, d := range docs {
		s.Total++
		switch d.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// computeRunStatus determines the overall run status from documents.
func computeRunStatus(docs []DocumentEntry) Status {
	hasFailure := false
	allComplete := true

	for _, d := range docs {
		if d.Status == StatusFailed {
			hasFailure = true
		}
		if !d.Status.IsTerminal() {
			allComplete = false
		}
	}

	if !allComplete {
		return StatusRunning
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}
