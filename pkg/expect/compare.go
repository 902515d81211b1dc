package expect

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

// Normalize converts v into the document value space: every number becomes
// float64, slices become []interface{}, maps become map[string]interface{} and
// structs go through their JSON form. Values from YAML, JSON and Go screens
// compare equal after normalization when they carry the same data.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return t
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	}

	if f, ok := ToFloat(v); ok {
		return f
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []interface{}{}
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var out interface{}
		if err := json.Unmarshal(data, &out); err != nil {
			return v
		}
		return Normalize(out)
	}
	return v
}

// Equal reports equality of scalars after numeric normalization. Composite
// values fall back to reflect.DeepEqual on the raw inputs.
func Equal(a, b interface{}) bool {
	na, nb := Normalize(a), Normalize(b)
	if isScalar(na) && isScalar(nb) {
		return na == nb
	}
	return reflect.DeepEqual(a, b)
}

// DeepEqual reports structural equality after normalization.
func DeepEqual(a, b interface{}) bool {
	return cmp.Equal(Normalize(a), Normalize(b))
}

// Diff renders a structural diff (-want +got).
func Diff(want, got interface{}) string {
	return cmp.Diff(Normalize(want), Normalize(got))
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case nil, string, bool, float64:
		return true
	}
	return false
}

// ToFloat converts any Go numeric type to float64.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// toNumber is ToFloat plus numeric strings, used by ordering comparisons.
func toNumber(v interface{}) (float64, bool) {
	if f, ok := ToFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Compare orders a and b: numbers numerically (numeric strings included),
// otherwise strings lexically. It returns -1, 0 or 1.
func Compare(a, b interface{}) (int, error) {
	fa, okA := toNumber(a)
	fb, okB := toNumber(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		default:
			return 0, nil
		}
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), nil
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

// Truthy applies script truthiness: nil, false, 0, NaN and "" are false,
// everything else (including empty collections) is true.
func Truthy(v interface{}) bool {
	switch t := Normalize(v).(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	}
	return true
}

// Length returns the length of a string, collection or map.
func Length(v interface{}) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String())), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// Contains reports substring containment for strings, element membership for
// collections and key presence for maps.
func Contains(container, item interface{}) (bool, error) {
	if s, ok := container.(string); ok {
		return strings.Contains(s, fmt.Sprint(item)), nil
	}
	switch c := Normalize(container).(type) {
	case []interface{}:
		for _, e := range c {
			if DeepEqual(e, item) {
				return true, nil
			}
		}
		return false, nil
	case map[string]interface{}:
		_, ok := c[fmt.Sprint(item)]
		return ok, nil
	}
	return false, fmt.Errorf("cannot search for %v in %T", item, container)
}

// IsEmpty reports nil, empty strings and empty collections.
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	n, ok := Length(v)
	return ok && n == 0
}

// Format renders a value for failure messages.
func Format(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	}
	if f, ok := ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	data, err := json.Marshal(Normalize(v))
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
