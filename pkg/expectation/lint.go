package expectation

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/template"
)

// LintError is a structural problem found in a document.
type LintError struct {
	File    string
	Line    int
	Where   string
	Message string
}

func (e *LintError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Where != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Where, e.Message)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

type linter struct {
	doc  *Document
	scr  screen.Screen
	errs []error
}

// Lint checks doc for unknown block types, operators and check names, empty
// fields and duplicate block ids. With a non-nil scr it also reports
// selectors and methods the screen does not expose.
func Lint(doc *Document, scr screen.Screen) []error {
	l := &linter{doc: doc, scr: scr}
	if doc.IsLegacy() {
		l.legacy(&doc.Legacy)
	} else {
		l.blocks(doc.Blocks)
	}
	return l.errs
}

func (l *linter) add(line int, where, format string, args ...interface{}) {
	l.errs = append(l.errs, &LintError{
		File:    l.doc.SourcePath,
		Line:    line,
		Where:   where,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *linter) blocks(blocks []Block) {
	seen := make(map[string]int)
	for i := range blocks {
		b := &blocks[i]
		where := fmt.Sprintf("block %d (%s)", i+1, b.Describe())

		if b.ID != "" {
			if first, dup := seen[b.ID]; dup {
				l.add(b.Line, where, "duplicate block id %q, first used by block %d", b.ID, first)
			} else {
				seen[b.ID] = i + 1
			}
		}

		switch b.Type {
		case BlockUIAssertion:
			if b.UI != nil {
				l.ui(b.Line, where, b.UI)
			}
		case BlockCustomCode:
			if b.CodeKey() == "" && strings.TrimSpace(b.Script) == "" {
				l.add(b.Line, where, "custom-code block needs code, id or script")
			}
		case BlockFunctionCall:
			if b.Call != nil {
				l.call(b.Line, where, b.Call)
			}
		case BlockDataAssertion:
			if len(b.Assertions) == 0 {
				l.add(b.Line, where, "data-assertion block has no assertions")
			}
			for j, a := range b.Assertions {
				w := fmt.Sprintf("%s assertions[%d]", where, j)
				switch {
				case a.Operator == "":
					l.add(b.Line, w, "operator is empty")
				case !IsOperator(a.Operator):
					l.add(b.Line, w, "unknown operator %q", a.Operator)
				}
			}
		default:
			l.add(b.Line, where, "unknown block type %q", b.Type)
		}
	}
}

func (l *linter) ui(line int, where string, d *UIData) {
	l.selectors(line, where+" visible", d.Visible)
	l.selectors(line, where+" hidden", d.Hidden)
	l.checks(line, where, d.Checks)
	l.selectors(line, where+" truthy", d.Truthy)
	l.selectors(line, where+" falsy", d.Falsy)
	l.assertions(line, where, d.Assertions)
}

func (l *linter) legacy(d *Legacy) {
	for i := range d.Prerequisites {
		l.call(0, fmt.Sprintf("prerequisites[%d]", i), &d.Prerequisites[i])
	}
	for _, fn := range d.Functions {
		where := "functions." + fn.Method
		l.member(0, where, fn.Method)
		if fn.Expect != "" {
			if _, ok := check.Lookup(fn.Expect); !ok {
				l.add(0, where, "unknown check %q", fn.Expect)
			}
		}
	}
	l.selectors(0, "visible", d.Visible)
	l.selectors(0, "hidden", d.Hidden)
	l.selectors(0, "truthy", d.Truthy)
	l.selectors(0, "falsy", d.Falsy)
	l.assertions(0, "", d.Assertions)
	l.checks(0, "", d.Checks)
}

func (l *linter) checks(line int, where string, c Checks) {
	prefix := strings.TrimSpace(where + " checks")
	l.selectors(line, prefix+".visible", c.Visible)
	l.selectors(line, prefix+".hidden", c.Hidden)
	for _, tc := range c.Text {
		l.selector(line, prefix+".text", tc.Field)
	}
	for _, tc := range c.Contains {
		l.selector(line, prefix+".contains", tc.Field)
	}
}

func (l *linter) assertions(line int, where string, as []Assertion) {
	for i, a := range as {
		w := strings.TrimSpace(fmt.Sprintf("%s assertions[%d]", where, i))
		if a.Fn == "" {
			l.add(line, w, "fn is empty")
		} else {
			l.selector(line, w, a.Fn)
		}
		if a.Expect == "" {
			l.add(line, w, "expect is empty")
		} else if _, ok := check.Lookup(a.Expect); !ok {
			l.add(line, w, "unknown check %q", a.Expect)
		}
		if a.CountOf != "" {
			l.member(line, w, a.CountOf)
		}
	}
}

func (l *linter) call(line int, where string, c *FunctionCall) {
	if c.Method == "" {
		l.add(line, where, "method is empty")
		return
	}
	if c.Instance == "" {
		l.member(line, where, c.Method)
	}
}

func (l *linter) selectors(line int, where string, sels []string) {
	for i, s := range sels {
		l.selector(line, fmt.Sprintf("%s[%d]", where, i), s)
	}
}

func (l *linter) selector(line int, where, raw string) {
	field := strings.TrimSpace(raw)
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if field == "" {
		l.add(line, where, "selector is empty")
		return
	}
	l.member(line, where, field)
}

// member reports names the screen lacks. Templated names are resolved at
// run time and skipped.
func (l *linter) member(line int, where, name string) {
	if l.scr == nil || template.HasTokens(name) {
		return
	}
	if !screen.Has(l.scr, name) {
		l.add(line, where, "%q not found on screen", name)
	}
}
