// Package template resolves {{path}} tokens against the variable store and
// the caller's test data.
//
// A string that is exactly one token resolves to the typed value it names.
// A token embedded in other text is replaced by the value's string form.
// Unresolved tokens are left in place.
package template

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

var (
	tokenPattern     = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	fullTokenPattern = regexp.MustCompile(`^\{\{\s*([^{}]+?)\s*\}\}$`)
)

// Resolver resolves template tokens. Variable store entries shadow test data.
type Resolver struct {
	store *vars.Store
}

// New creates a resolver backed by store. A nil store resolves against data only.
func New(store *vars.Store) *Resolver {
	return &Resolver{store: store}
}

// IsToken reports whether s is exactly one {{path}} token and returns the path.
func IsToken(s string) (string, bool) {
	m := fullTokenPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// HasTokens reports whether s contains any {{path}} token.
func HasTokens(s string) bool {
	return tokenPattern.MatchString(s)
}

// Lookup finds path in the variable store, then in data.
func (r *Resolver) Lookup(path string, data map[string]interface{}) (interface{}, bool) {
	segs, err := parsePath(path)
	if err != nil {
		logger.Warn("invalid template path %q: %v", path, err)
		return nil, false
	}

	if r.store != nil && !segs[0].isIndex {
		if root, ok := r.store.Get(segs[0].key); ok {
			if v, ok := walk(root, segs[1:]); ok {
				return v, true
			}
		}
	}
	if data != nil {
		if v, ok := walk(data, segs); ok {
			return v, true
		}
	}
	return nil, false
}

// Resolve resolves every string leaf of value. Slices and maps are copied,
// never modified in place.
func (r *Resolver) Resolve(value interface{}, data map[string]interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return r.ResolveString(v, data)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = r.Resolve(item, data)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = r.ResolveString(item, data)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = r.Resolve(item, data)
		}
		return out
	default:
		return value
	}
}

// ResolveString resolves a single string. Full-token strings keep the
// resolved value's type; anything else comes back as a string.
func (r *Resolver) ResolveString(s string, data map[string]interface{}) interface{} {
	if path, ok := IsToken(s); ok {
		if v, found := r.Lookup(path, data); found {
			return v
		}
		logger.Warn("template variable %q not found, leaving %s unresolved", path, s)
		return s
	}
	if !HasTokens(s) {
		return s
	}
	return r.Interpolate(s, data)
}

// Interpolate replaces every token in s with the stringified value.
func (r *Resolver) Interpolate(s string, data map[string]interface{}) string {
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		path := tokenPattern.FindStringSubmatch(tok)[1]
		v, found := r.Lookup(path, data)
		if !found {
			logger.Warn("template variable %q not found, leaving %s unresolved", path, tok)
			return tok
		}
		return Stringify(v)
	})
}

// Stringify renders v the way embedded substitution does: scalars via %v,
// nil as "null", maps and slices as JSON.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%v", t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
