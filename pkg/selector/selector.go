// Package selector parses element references such as `rows`, `rows[2]`,
// `rows[last]`, `rows[all]`, `rowAt[any:rowCount]` and `rows[{{i}}]`.
package selector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/template"
)

// IndexKind is the kind of element access a selector asks for.
type IndexKind int

const (
	IndexNone   IndexKind = iota // bare field
	IndexNumber                  // field[n]
	IndexFirst                   // field[first]
	IndexLast                    // field[last]
	IndexAll                     // field[all]
	IndexAny                     // field[any]
)

// String returns the keyword used in selector syntax.
func (k IndexKind) String() string {
	switch k {
	case IndexNone:
		return "none"
	case IndexNumber:
		return "number"
	case IndexFirst:
		return "first"
	case IndexLast:
		return "last"
	case IndexAll:
		return "all"
	case IndexAny:
		return "any"
	default:
		return "unknown"
	}
}

// IsAggregate reports whether the index addresses a whole collection.
func (k IndexKind) IsAggregate() bool {
	return k == IndexAll || k == IndexAny
}

// Index is the parsed bracket part of a selector.
type Index struct {
	Kind IndexKind
	N    int // valid when Kind == IndexNumber
}

// Selector is a parsed element reference.
type Selector struct {
	Raw   string
	Field string
	Index Index

	// VariableIndex holds the template path when the index was {{path}}.
	VariableIndex string
	// CountOf names the member that yields the element count of a
	// parameterized locator (`rowAt[all:rowCount]`).
	CountOf string
	// Failed is set when a variable index could not be resolved to an
	// integer and the parser fell back to index 0.
	Failed bool
}

// String renders the selector back into its canonical syntax.
func (s Selector) String() string {
	switch s.Index.Kind {
	case IndexNone:
		return s.Field
	case IndexNumber:
		return fmt.Sprintf("%s[%d]", s.Field, s.Index.N)
	default:
		if s.CountOf != "" {
			return fmt.Sprintf("%s[%s:%s]", s.Field, s.Index.Kind, s.CountOf)
		}
		return fmt.Sprintf("%s[%s]", s.Field, s.Index.Kind)
	}
}

// Parser parses selectors, resolving variable indices through a template resolver.
type Parser struct {
	resolver *template.Resolver
}

// NewParser creates a parser. A nil resolver treats every variable index as unresolved.
func NewParser(r *template.Resolver) *Parser {
	return &Parser{resolver: r}
}

// Parse parses raw. It never fails: malformed input degrades to a bare field
// and unresolvable variable indices fall back to 0 with Failed set.
func (p *Parser) Parse(raw string, data map[string]interface{}) Selector {
	raw = strings.TrimSpace(raw)
	sel := Selector{Raw: raw, Field: raw}

	open := strings.IndexByte(raw, '[')
	if open == -1 {
		return sel
	}
	if !strings.HasSuffix(raw, "]") || open == 0 {
		logger.Warn("malformed selector %q, using it as a field name", raw)
		return sel
	}

	sel.Field = strings.TrimSpace(raw[:open])
	inner := strings.TrimSpace(raw[open+1 : len(raw)-1])

	if path, ok := template.IsToken(inner); ok {
		sel.VariableIndex = path
		sel.Index = Index{Kind: IndexNumber}
		n, ok := p.resolveIndex(path, data)
		if !ok {
			sel.Failed = true
			logger.Warn("selector %q: index {{%s}} did not resolve to an integer, using 0", raw, path)
			return sel
		}
		sel.Index.N = n
		return sel
	}

	keyword, countOf, _ := strings.Cut(inner, ":")
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	countOf = strings.TrimSpace(countOf)

	switch keyword {
	case "first":
		sel.Index = Index{Kind: IndexFirst}
	case "last":
		sel.Index = Index{Kind: IndexLast}
	case "all":
		sel.Index = Index{Kind: IndexAll}
		sel.CountOf = countOf
	case "any":
		sel.Index = Index{Kind: IndexAny}
		sel.CountOf = countOf
	default:
		n, err := strconv.Atoi(inner)
		if err != nil {
			logger.Warn("selector %q: unknown index %q, using 0", raw, inner)
			sel.Index = Index{Kind: IndexNumber}
			sel.Failed = true
			return sel
		}
		sel.Index = Index{Kind: IndexNumber, N: n}
	}
	return sel
}

func (p *Parser) resolveIndex(path string, data map[string]interface{}) (int, bool) {
	if p.resolver == nil {
		return 0, false
	}
	v, found := p.resolver.Lookup(path, data)
	if !found {
		return 0, false
	}
	return toIndex(v)
}

func toIndex(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
