package selector

import (
	"testing"

	"github.com/devicelab-dev/screen-expect/pkg/template"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

func TestParse(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		raw     string
		field   string
		kind    IndexKind
		n       int
		countOf string
		failed  bool
	}{
		{"title", "title", IndexNone, 0, "", false},
		{"rows[3]", "rows", IndexNumber, 3, "", false},
		{"rows[first]", "rows", IndexFirst, 0, "", false},
		{"rows[LAST]", "rows", IndexLast, 0, "", false},
		{"rows[all]", "rows", IndexAll, 0, "", false},
		{"rows[any]", "rows", IndexAny, 0, "", false},
		{"rowAt[all:rowCount]", "rowAt", IndexAll, 0, "rowCount", false},
		{"rowAt[any: rowCount]", "rowAt", IndexAny, 0, "rowCount", false},
		{"rows[bogus]", "rows", IndexNumber, 0, "", true},
		{" rows[ 2 ] ", "rows", IndexNumber, 2, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sel := p.Parse(tt.raw, nil)
			if sel.Field != tt.field {
				t.Errorf("Field = %q, want %q", sel.Field, tt.field)
			}
			if sel.Index.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", sel.Index.Kind, tt.kind)
			}
			if sel.Index.N != tt.n {
				t.Errorf("N = %d, want %d", sel.Index.N, tt.n)
			}
			if sel.CountOf != tt.countOf {
				t.Errorf("CountOf = %q, want %q", sel.CountOf, tt.countOf)
			}
			if sel.Failed != tt.failed {
				t.Errorf("Failed = %v, want %v", sel.Failed, tt.failed)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	p := NewParser(nil)
	for _, raw := range []string{"rows[2", "[2]"} {
		sel := p.Parse(raw, nil)
		if sel.Field != raw || sel.Index.Kind != IndexNone {
			t.Errorf("Parse(%q) = %+v, want bare field", raw, sel)
		}
	}
}

func TestParse_VariableIndex(t *testing.T) {
	store := vars.New()
	_ = store.Store("row", 4)
	_ = store.Store("label", "x")
	p := NewParser(template.New(store))
	data := map[string]interface{}{"pos": float64(2), "frac": 1.5, "str": "7"}

	tests := []struct {
		raw    string
		n      int
		failed bool
	}{
		{"rows[{{row}}]", 4, false},
		{"rows[{{pos}}]", 2, false},
		{"rows[{{str}}]", 7, false},
		{"rows[{{frac}}]", 0, true},
		{"rows[{{label}}]", 0, true},
		{"rows[{{missing}}]", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			sel := p.Parse(tt.raw, data)
			if sel.Index.Kind != IndexNumber {
				t.Fatalf("Kind = %s, want number", sel.Index.Kind)
			}
			if sel.VariableIndex == "" {
				t.Error("VariableIndex should be recorded")
			}
			if sel.Index.N != tt.n || sel.Failed != tt.failed {
				t.Errorf("got N=%d Failed=%v, want N=%d Failed=%v", sel.Index.N, sel.Failed, tt.n, tt.failed)
			}
		})
	}
}

func TestSelector_String(t *testing.T) {
	p := NewParser(nil)
	for _, raw := range []string{"title", "rows[2]", "rows[first]", "rows[all]", "rowAt[any:rowCount]"} {
		if got := p.Parse(raw, nil).String(); got != raw {
			t.Errorf("String() = %q, want %q", got, raw)
		}
	}
}
