package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// segment is one step of a lookup path: a key or a numeric index.
type segment struct {
	key     string
	index   int
	isIndex bool
}

func (s segment) String() string {
	if s.isIndex {
		return fmt.Sprintf("[%d]", s.index)
	}
	return s.key
}

// parsePath splits `a.b[0]['c d']` into segments.
func parsePath(path string) ([]segment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}

	var segs []segment
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, segment{key: cur.String()})
			cur.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		c := path[i]
		switch c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end == -1 {
				return nil, fmt.Errorf("unclosed [ in %q", path)
			}
			inner := strings.TrimSpace(path[i+1 : i+end])
			i += end
			if len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0] {
				segs = append(segs, segment{key: inner[1 : len(inner)-1]})
				continue
			}
			n, err := strconv.Atoi(inner)
			if err != nil {
				// bare word inside brackets behaves like a key
				segs = append(segs, segment{key: inner})
				continue
			}
			segs = append(segs, segment{index: n, isIndex: true})
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path %q", path)
	}
	return segs, nil
}

// walk follows segs from root. Missing keys, out-of-range indices and nil
// intermediates all report false.
func walk(root interface{}, segs []segment) (interface{}, bool) {
	cur := root
	for _, seg := range segs {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur interface{}, seg segment) (interface{}, bool) {
	if cur == nil {
		return nil, false
	}

	// fast paths for decoded YAML/JSON data
	switch c := cur.(type) {
	case map[string]interface{}:
		key := seg.key
		if seg.isIndex {
			key = strconv.Itoa(seg.index)
		}
		v, ok := c[key]
		return v, ok
	case []interface{}:
		if !seg.isIndex {
			if seg.key == "length" {
				return len(c), true
			}
			return nil, false
		}
		if seg.index < 0 || seg.index >= len(c) {
			return nil, false
		}
		return c[seg.index], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		key := seg.key
		if seg.isIndex {
			key = strconv.Itoa(seg.index)
		}
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if !seg.isIndex {
			if seg.key == "length" {
				return rv.Len(), true
			}
			return nil, false
		}
		if seg.index < 0 || seg.index >= rv.Len() {
			return nil, false
		}
		return rv.Index(seg.index).Interface(), true
	case reflect.String:
		if !seg.isIndex && seg.key == "length" {
			return rv.Len(), true
		}
	case reflect.Struct:
		if seg.isIndex {
			return nil, false
		}
		f := fieldByName(rv, seg.key)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// fieldByName matches the exact Go name first, then the name with its first
// letter upper-cased so `user.name` reaches field Name.
func fieldByName(rv reflect.Value, name string) reflect.Value {
	if f := rv.FieldByName(name); f.IsValid() {
		return f
	}
	if name == "" {
		return reflect.Value{}
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return rv.FieldByName(string(r))
}
