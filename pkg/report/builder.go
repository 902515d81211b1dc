package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/devicelab-dev/screen-expect/pkg/expectation"
)

// BuilderConfig describes the run for the report header.
type BuilderConfig struct {
	RunnerVersion string
	Backend       string
	Fixture       string
}

// BuildSkeleton creates an index with every document pending.
func BuildSkeleton(docs []*expectation.Document, cfg BuilderConfig) *Index {
	now := time.Now()
	index := &Index{
		Version:     Version,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Backend: cfg.Backend,
			Fixture: cfg.Fixture,
		},
		Documents: make([]DocumentEntry, len(docs)),
	}

	for i, doc := range docs {
		index.Documents[i] = DocumentEntry{
			Index:      i,
			Name:       doc.Name(),
			SourceFile: doc.SourcePath,
			Status:     StatusPending,
		}
	}
	index.Summary = summarize(index.Documents)
	return index
}

// WriteSkeleton creates outputDir and writes the pending index to it.
func WriteSkeleton(outputDir string, index *Index) error {
	if err := ensureDir(outputDir); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ReadIndex loads a report.json file.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided report path
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &index, nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}

// atomicWriteJSON writes v to a temp file next to path and renames it into
// place, so readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
