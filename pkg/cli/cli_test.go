package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/screen-expect/pkg/report"
)

const testFixture = `elements:
  title: Welcome
  spinner: {text: "", visible: false}
  rows: [a, b, c]
methods:
  getOrder: {returns: A-1}
`

// writeFiles writes name -> content into a temp dir and returns the dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

// runApp runs the CLI with args and returns its output. Exit codes are
// returned as errors instead of terminating the test binary.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"screen-expect", "--no-ansi"}, args...))
	return out.String(), err
}

func exitCode(err error) int {
	if ec, ok := err.(cli.ExitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}

func TestLint_Clean(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"login.yaml":   "screen: login\nvisible: [title]\nhidden: [spinner]\n",
	})

	out, err := runApp(t, "lint", "--fixture", filepath.Join(dir, "fixture.yaml"), filepath.Join(dir, "login.yaml"))
	if err != nil {
		t.Fatalf("lint error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 document(s) OK") {
		t.Errorf("output = %q", out)
	}
}

func TestLint_Problems(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"bad.yaml":     "blocks:\n  - type: teleport\n  - type: data-assertion\n    assertions:\n      - {left: 1, operator: roughly, right: 1}\n",
		"missing.yaml": "visible: [footer]\n",
	})

	out, err := runApp(t, "lint", "--fixture", filepath.Join(dir, "fixture.yaml"),
		filepath.Join(dir, "bad.yaml"), filepath.Join(dir, "missing.yaml"))
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d (err %v), want 1", exitCode(err), err)
	}
	for _, want := range []string{"teleport", "roughly", `"footer" not found on screen`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLint_NoArgs(t *testing.T) {
	if _, err := runApp(t, "lint"); err == nil {
		t.Error("expected error without documents")
	}
}

func TestEval_Passes(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"login.yaml":   "screen: login\nvisible: [title]\nchecks:\n  text:\n    title: Welcome\n",
	})

	out, err := runApp(t, "eval", "--fixture", filepath.Join(dir, "fixture.yaml"), filepath.Join(dir, "login.yaml"))
	if err != nil {
		t.Fatalf("eval error = %v\n%s", err, out)
	}
	for _, want := range []string{"[1/1]", "login", "✓", "1 passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEval_FailureExitCode(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"login.yaml":   "screen: login\nhidden: [title]\n",
	})

	out, err := runApp(t, "eval", "--fixture", filepath.Join(dir, "fixture.yaml"), filepath.Join(dir, "login.yaml"))
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d (err %v), want 1", exitCode(err), err)
	}
	if !strings.Contains(out, "✗") || !strings.Contains(out, "1 failed") {
		t.Errorf("output = %s", out)
	}
}

func TestEval_JSONWithEnvData(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"data.yaml":    "user: bob\nrows: 3\n",
		"user.yaml": "blocks:\n  - type: data-assertion\n    assertions:\n" +
			"      - {left: \"{{user}}\", operator: equals, right: ann}\n" +
			"      - {left: \"{{rows}}\", operator: equals, right: 3}\n",
	})

	out, err := runApp(t, "eval", "--json",
		"--fixture", filepath.Join(dir, "fixture.yaml"),
		"--data", filepath.Join(dir, "data.yaml"),
		"-e", "user=ann",
		filepath.Join(dir, "user.yaml"))
	if err != nil {
		t.Fatalf("eval error = %v\n%s", err, out)
	}

	var result struct {
		Status          string `json:"status"`
		PassedDocuments int    `json:"passedDocuments"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.Status != "passed" || result.PassedDocuments != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestEval_WritesReport(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"a.yaml":       "screen: a\nvisible: [title]\n",
		"b.yaml":       "screen: b\nhidden: [title]\n",
	})
	outDir := filepath.Join(t.TempDir(), "reports")

	_, err := runApp(t, "eval", "--fixture", filepath.Join(dir, "fixture.yaml"), "--output", outDir,
		filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yaml"))
	if exitCode(err) != 1 {
		t.Fatalf("exit code = %d (err %v), want 1", exitCode(err), err)
	}

	index, err := report.ReadIndex(filepath.Join(outDir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex() error = %v", err)
	}
	if index.Status != report.StatusFailed || index.Summary.Passed != 1 || index.Summary.Failed != 1 {
		t.Errorf("index status = %s, summary = %+v", index.Status, index.Summary)
	}
	if index.Documents[1].Result == nil || index.Documents[1].Error == nil {
		t.Errorf("failed document entry = %+v", index.Documents[1])
	}
}

func TestEval_PersistsAcrossRuns(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"order.yaml":   "functions:\n  getOrder:\n    persistStoreAs: orderId\n",
		"check.yaml":   "blocks:\n  - type: data-assertion\n    assertions:\n      - {left: \"{{orderId}}\", operator: equals, right: A-1}\n",
	})
	db := filepath.Join(dir, "vars.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("persistence:\n  path: "+db+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fixture := filepath.Join(dir, "fixture.yaml")

	if out, err := runApp(t, "--config", cfgPath, "eval", "--fixture", fixture, filepath.Join(dir, "order.yaml")); err != nil {
		t.Fatalf("first run error = %v\n%s", err, out)
	}
	// A fresh process sees the persisted value as test data
	if out, err := runApp(t, "--config", cfgPath, "eval", "--fixture", fixture, filepath.Join(dir, "check.yaml")); err != nil {
		t.Fatalf("second run error = %v\n%s", err, out)
	}

	out, err := runApp(t, "vars", "--db", db)
	if err != nil {
		t.Fatalf("vars error = %v", err)
	}
	if !strings.Contains(out, `"orderId": "A-1"`) {
		t.Errorf("vars output = %s", out)
	}

	if _, err := runApp(t, "vars", "--db", db, "--delete", "orderId"); err != nil {
		t.Fatalf("vars --delete error = %v", err)
	}
	if _, err := runApp(t, "vars", "--db", db, "orderId"); err == nil {
		t.Error("expected error for deleted key")
	}
}

func TestEval_Errors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"fixture.yaml": testFixture,
		"login.yaml":   "visible: [title]\n",
	})
	fixture := filepath.Join(dir, "fixture.yaml")
	doc := filepath.Join(dir, "login.yaml")

	tests := []struct {
		name string
		args []string
	}{
		{"no documents", []string{"eval", "--fixture", fixture}},
		{"missing fixture flag", []string{"eval", doc}},
		{"unknown backend", []string{"eval", "--fixture", fixture, "--backend", "quantum", doc}},
		{"missing data file", []string{"eval", "--fixture", fixture, "--data", filepath.Join(dir, "nope.yaml"), doc}},
		{"missing document", []string{"eval", "--fixture", fixture, filepath.Join(dir, "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVars_MissingDatabase(t *testing.T) {
	_, err := runApp(t, "vars", "--db", filepath.Join(t.TempDir(), "absent.db"))
	if err == nil || !strings.Contains(err.Error(), "no persisted variables") {
		t.Errorf("error = %v", err)
	}
}

func TestBuildTestData(t *testing.T) {
	dir := writeFiles(t, map[string]string{"data.yaml": "user: bob\nlimit: 5\n"})
	base := map[string]interface{}{"user": "persisted", "orderId": "A-1"}

	data, err := buildTestData(base, filepath.Join(dir, "data.yaml"), []string{"user=ann", "broken"})
	if err != nil {
		t.Fatalf("buildTestData() error = %v", err)
	}
	if data["user"] != "ann" || data["limit"] != 5 || data["orderId"] != "A-1" {
		t.Errorf("data = %v", data)
	}
	if base["user"] != "persisted" {
		t.Error("base map was modified")
	}
}

func TestParseEnvVars(t *testing.T) {
	result := parseEnvVars([]string{"USER=test", "PASS=a=b", "EMPTY=", "INVALID"})

	if result["USER"] != "test" || result["PASS"] != "a=b" {
		t.Errorf("result = %v", result)
	}
	if v, ok := result["EMPTY"]; !ok || v != "" {
		t.Errorf("EMPTY = %q, %v", v, ok)
	}
	if _, ok := result["INVALID"]; ok {
		t.Error("INVALID should be skipped")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{125000, "2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestColor_Enabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = true
	if got := color(colorGreen); got != colorGreen {
		t.Errorf("color(colorGreen) with colors enabled = %q, want %q", got, colorGreen)
	}
}

func TestColor_Disabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = false
	if got := color(colorGreen); got != "" {
		t.Errorf("color(colorGreen) with colors disabled = %q, want empty string", got)
	}
}
