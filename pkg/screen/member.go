package screen

import (
	"context"
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/devicelab-dev/screen-expect/pkg/core"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Member is one named entry of a screen: a plain value (locator, element,
// flag) or a function (locator factory, action, query).
type Member struct {
	Name  string
	value reflect.Value
}

// NewMember wraps v as a member named name.
func NewMember(name string, v interface{}) Member {
	return Member{Name: name, value: reflect.ValueOf(v)}
}

// Value returns the raw member value.
func (m Member) Value() interface{} {
	if !m.value.IsValid() {
		return nil
	}
	return m.value.Interface()
}

// IsFunc reports whether the member can be called.
func (m Member) IsFunc() bool {
	return m.value.IsValid() && m.value.Kind() == reflect.Func && !m.value.IsNil()
}

// takesContext reports whether the first parameter is a context.Context.
func (m Member) takesContext() bool {
	t := m.value.Type()
	return t.NumIn() > 0 && t.In(0) == contextType
}

// Arity is the number of parameters excluding a leading context.
func (m Member) Arity() int {
	if !m.IsFunc() {
		return 0
	}
	n := m.value.Type().NumIn()
	if m.takesContext() {
		n--
	}
	return n
}

// IsFactory reports a zero-argument function returning something besides an error.
func (m Member) IsFactory() bool {
	return m.IsFunc() && m.Arity() == 0 && !m.value.Type().IsVariadic() && m.returnsValue()
}

// TakesIndex reports a parameterized locator: exactly one integer parameter
// and a non-error result.
func (m Member) TakesIndex() bool {
	if !m.IsFunc() || m.Arity() != 1 || m.value.Type().IsVariadic() || !m.returnsValue() {
		return false
	}
	t := m.value.Type()
	p := t.In(t.NumIn() - 1)
	switch p.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func (m Member) returnsValue() bool {
	t := m.value.Type()
	return t.NumOut() > 0 && t.Out(0) != errorType
}

// Call invokes the member. Arguments are coerced to the parameter types;
// a leading context parameter receives ctx. Results are normalized:
// () -> nil, (T) -> T, (error) -> err, (T, error) -> T, err.
// Calling a non-function member with no arguments returns its value.
func (m Member) Call(ctx context.Context, args ...interface{}) (result interface{}, err error) {
	if !m.IsFunc() {
		if len(args) > 0 {
			return nil, core.ErrInvocation.WithMessagef("%s is not callable", m.Name)
		}
		return m.Value(), nil
	}

	in, err := m.buildArgs(ctx, args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = core.ErrInvocation.WithMessagef("%s panicked: %v", m.Name, r)
		}
	}()

	return splitResults(m.value.Call(in))
}

func (m Member) buildArgs(ctx context.Context, args []interface{}) ([]reflect.Value, error) {
	t := m.value.Type()
	var in []reflect.Value
	offset := 0
	if m.takesContext() {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
		offset = 1
	}

	params := t.NumIn() - offset
	variadic := t.IsVariadic()
	if !variadic && len(args) > params {
		return nil, core.ErrInvocation.WithMessagef("%s takes %d argument(s), got %d", m.Name, params, len(args))
	}

	for i := 0; i < params; i++ {
		pt := t.In(i + offset)
		if variadic && i == params-1 {
			elem := pt.Elem()
			for _, a := range args[min(i, len(args)):] {
				v, err := coerce(a, elem)
				if err != nil {
					return nil, core.ErrInvocation.WithMessagef("%s: argument %d", m.Name, i+1).WithCause(err)
				}
				in = append(in, v)
			}
			break
		}
		var a interface{}
		if i < len(args) {
			a = args[i]
		}
		v, err := coerce(a, pt)
		if err != nil {
			return nil, core.ErrInvocation.WithMessagef("%s: argument %d", m.Name, i+1).WithCause(err)
		}
		in = append(in, v)
	}
	return in, nil
}

func splitResults(out []reflect.Value) (interface{}, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		last := out[len(out)-1]
		if last.Type() == errorType {
			if err := asError(last); err != nil {
				return nil, err
			}
		}
		return out[0].Interface(), nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

// coerce converts a document value (decoded YAML/JSON) into type t.
func coerce(a interface{}, t reflect.Type) (reflect.Value, error) {
	if a == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		if isInt(t.Kind()) && v.Kind() == reflect.Float64 && v.Float() != float64(int64(v.Float())) {
			return reflect.Value{}, fmt.Errorf("cannot use %v as %s", a, t)
		}
		return v.Convert(t), nil
	}
	if t.Kind() == reflect.String {
		return reflect.ValueOf(fmt.Sprintf("%v", a)).Convert(t), nil
	}
	if t.Kind() == reflect.Interface && v.Type().Implements(t) {
		return v, nil
	}

	// structs, typed slices and maps go through a JSON round trip
	data, err := json.Marshal(a)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", a, t, err)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s: %w", a, t, err)
	}
	return ptr.Elem(), nil
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || k == reflect.Float32 || k == reflect.Float64
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
