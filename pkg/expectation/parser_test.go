package expectation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/devicelab-dev/screen-expect/pkg/screen"
)

func TestParse_BlockForm(t *testing.T) {
	content := `
screen: login
blocks:
  - id: header
    type: ui-assertion
    label: Header shows
    order: 2
    data:
      visible: [title, "rows[all]"]
      checks:
        text:
          title: Welcome
          subtitle: Sign in
      assertions:
        - fn: rows
          expect: toHaveCount
          value: 3
  - id: count
    type: data-assertion
    order: 1
    enabled: false
    assertions:
      - left: "{{count}}"
        operator: greaterThan
        right: 2
  - id: fetch
    type: function-call
    order: 3
    data:
      method: loadUser
      args: [ann]
      await: false
      storeAs: user
  - id: custom
    type: custom-code
    order: 4
    code: checkBanner
`
	doc, err := Parse([]byte(content), "login.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.IsLegacy() {
		t.Fatal("expected block form")
	}
	if doc.Screen != "login" || len(doc.Blocks) != 4 {
		t.Fatalf("screen=%q blocks=%d", doc.Screen, len(doc.Blocks))
	}

	ui := doc.Blocks[0]
	if ui.UI == nil || ui.Order != 2 || !ui.IsEnabled() {
		t.Fatalf("ui block = %+v", ui)
	}
	if diff := cmp.Diff([]string{"title", "rows[all]"}, ui.UI.Visible); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
	wantText := TextChecks{{Field: "title", Value: "Welcome"}, {Field: "subtitle", Value: "Sign in"}}
	if diff := cmp.Diff(wantText, ui.UI.Checks.Text); diff != "" {
		t.Errorf("text checks mismatch (-want +got):\n%s", diff)
	}
	if len(ui.UI.Assertions) != 1 || ui.UI.Assertions[0].Expect != "toHaveCount" {
		t.Errorf("assertions = %+v", ui.UI.Assertions)
	}
	if ui.Line == 0 {
		t.Error("block line not recorded")
	}

	data := doc.Blocks[1]
	if data.IsEnabled() {
		t.Error("expected disabled block")
	}
	if len(data.Assertions) != 1 || data.Assertions[0].Operator != OpGreaterThan || data.Assertions[0].Right != 2 {
		t.Errorf("data assertions = %+v", data.Assertions)
	}

	call := doc.Blocks[2].Call
	if call == nil || call.Method != "loadUser" || call.Awaits() || call.StoreAs != "user" {
		t.Errorf("function-call = %+v", call)
	}

	if key := doc.Blocks[3].CodeKey(); key != "checkBanner" {
		t.Errorf("CodeKey() = %q", key)
	}
}

func TestParse_JSON(t *testing.T) {
	content := `{"blocks": [{"id": "b1", "type": "data-assertion", "order": 0,
  "assertions": [{"left": "{{count}}", "operator": "equals", "right": 5}]}]}`
	doc, err := Parse([]byte(content), "doc.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Blocks) != 1 || doc.Blocks[0].Assertions[0].Right != 5 {
		t.Errorf("blocks = %+v", doc.Blocks)
	}
}

func TestParse_LegacyForm(t *testing.T) {
	content := `
truthy: [isReady]
visible: [title]
checks:
  contains:
    banner: Sale
functions:
  loadItems: [3, true]
  refresh:
  getTotal:
    expect: toBeGreaterThan
    value: 10
    storeAs: total
  search: shoes
prerequisites:
  - openMenu
  - method: selectTab
    args: [home]
    storeAs: tab
expect: finalCheck
`
	doc, err := Parse([]byte(content), "legacy.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.IsLegacy() {
		t.Fatal("expected legacy form")
	}

	wantFns := Functions{
		{Method: "loadItems", Args: []interface{}{3, true}},
		{Method: "refresh"},
		{Method: "getTotal", Expect: "toBeGreaterThan", Value: 10, StoreAs: "total"},
		{Method: "search", Args: []interface{}{"shoes"}},
	}
	if diff := cmp.Diff(wantFns, doc.Functions); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}

	wantPre := []FunctionCall{
		{Method: "openMenu"},
		{Method: "selectTab", Args: []interface{}{"home"}, StoreAs: "tab"},
	}
	if diff := cmp.Diff(wantPre, doc.Prerequisites); diff != "" {
		t.Errorf("prerequisites mismatch (-want +got):\n%s", diff)
	}

	if v, ok := doc.Checks.Contains.Get("banner"); !ok || v != "Sale" {
		t.Errorf("contains banner = %v, %v", v, ok)
	}
	if doc.Expect != "finalCheck" {
		t.Errorf("expect = %q", doc.Expect)
	}
}

func TestParse_EmptyBlocksIsLegacy(t *testing.T) {
	doc, err := Parse([]byte("blocks: []\nvisible: [title]\n"), "x.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.IsLegacy() {
		t.Error("an empty blocks array means legacy form")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "   \n", "empty document"},
		{"not a mapping", "- a\n- b\n", "must be a mapping"},
		{"missing type", "blocks:\n  - id: x\n", "no type"},
		{"function-call without data", "blocks:\n  - type: function-call\n", "no data"},
		{"text checks not a mapping", "checks:\n  text: [a]\n", "mapping"},
		{"bad yaml", "blocks: [\n", "x.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "x.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseFile_And_CollectFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml":    "visible: [title]\n",
		"b.json":    `{"hidden": ["spinner"]}`,
		"notes.txt": "ignored",
		"sub/c.yml": "truthy: [ready]\n",
	}
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	found, err := CollectFiles(dir)
	if err != nil {
		t.Fatalf("CollectFiles() error = %v", err)
	}
	if len(found) != 3 {
		t.Errorf("CollectFiles() = %v, want 3 documents", found)
	}

	doc, err := ParseFile(filepath.Join(dir, "b.json"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(doc.Hidden) != 1 || doc.SourcePath == "" {
		t.Errorf("doc = %+v", doc)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLint(t *testing.T) {
	content := `
blocks:
  - id: a
    type: ui-assertion
    data:
      visible: [title, "ghost[0]", "rows[{{i}}]"]
      assertions:
        - fn: title
          expect: toShimmer
        - fn: ""
          expect: toBeVisible
  - id: a
    type: data-assertion
    assertions:
      - left: 1
        operator: roughly
        right: 2
  - type: teleport
  - type: function-call
    data:
      method: missingMethod
  - type: custom-code
`
	doc, err := Parse([]byte(content), "lint.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scr := screen.Map{"title": "x", "rows": []string{"a"}}

	errs := Lint(doc, scr)
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	joined := strings.Join(msgs, "\n")

	for _, want := range []string{
		`"ghost" not found on screen`,
		`unknown check "toShimmer"`,
		"fn is empty",
		`duplicate block id "a"`,
		`unknown operator "roughly"`,
		`unknown block type "teleport"`,
		`"missingMethod" not found on screen`,
		"custom-code block needs code, id or script",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("lint output missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, `"rows"`) || strings.Contains(joined, `"title" not found`) {
		t.Errorf("known members reported:\n%s", joined)
	}
	if len(errs) != 8 {
		t.Errorf("got %d lint errors, want 8:\n%s", len(errs), joined)
	}

	if errs := Lint(doc, nil); len(errs) != 6 {
		t.Errorf("without a screen got %d lint errors, want 6", len(errs))
	}
}
