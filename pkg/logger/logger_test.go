package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Info("resolved %s", "title")
	Warn("fallback count %d", 10)

	out := buf.String()
	if !strings.Contains(out, "[INFO] resolved title") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "[WARN] fallback count 10") {
		t.Errorf("missing warn line in %q", out)
	}
}

func TestDisabledByDefault(t *testing.T) {
	SetOutput(nil)
	Error("dropped")
	if GetWriter() != io.Discard {
		t.Error("expected io.Discard when logging is disabled")
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Debug("block %d running", 1)
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[DEBUG] block 1 running") {
		t.Errorf("log file = %q", data)
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "run.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}
