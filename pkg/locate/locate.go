// Package locate turns a parsed selector into something checks can run
// against: a backend target, a collection, a parameterized locator call or a
// plain value exposed by the screen.
package locate

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/selector"
)

// Mode says how many targets a check runs against.
type Mode int

const (
	ModeSingle Mode = iota
	ModeAll
	ModeAny
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeAll:
		return "all"
	case ModeAny:
		return "any"
	default:
		return "unknown"
	}
}

// Resolved is the outcome of resolving one selector.
type Resolved struct {
	Field string
	Index selector.Index
	Mode  Mode

	// Target is the locator or element for non-method resolutions. For
	// aggregate modes it is the whole collection.
	Target backend.Target

	// IsMethodCall marks a parameterized locator: Method is invoked with an
	// element index for every target.
	IsMethodCall bool
	Method       screen.Member
	// Count is the element count of a parameterized locator in aggregate or
	// last mode.
	Count int

	// IsValue marks a member that is not a locator of the active backend.
	IsValue bool
	Value   interface{}

	adapter backend.Adapter
}

// Resolver resolves selectors against a screen through one adapter.
type Resolver struct {
	adapter       backend.Adapter
	fallbackCount int
}

// New creates a resolver. A fallbackCount above zero is used, with a
// warning, when the count of a parameterized locator cannot be determined.
func New(a backend.Adapter, fallbackCount int) *Resolver {
	return &Resolver{adapter: a, fallbackCount: fallbackCount}
}

// Adapter returns the backend adapter.
func (r *Resolver) Adapter() backend.Adapter {
	return r.adapter
}

// Option tunes a single resolution.
type Option func(*options)

type options struct {
	countOf string
}

// CountOf names the member that yields the count of a parameterized locator.
// A countRef in the selector itself takes precedence.
func CountOf(name string) Option {
	return func(o *options) { o.countOf = name }
}

// Resolve resolves sel against scr.
func (r *Resolver) Resolve(ctx context.Context, scr screen.Screen, sel selector.Selector, opts ...Option) (*Resolved, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if sel.CountOf != "" {
		o.countOf = sel.CountOf
	}

	m, ok := scr.Lookup(sel.Field)
	if !ok {
		return nil, core.FieldNotFound(sel.Field, scr.Names())
	}

	res := &Resolved{Field: sel.Field, Index: sel.Index, adapter: r.adapter}

	if m.TakesIndex() {
		return r.resolveMethod(ctx, scr, res, m, o.countOf)
	}

	value := m.Value()
	if m.IsFactory() {
		v, err := m.Call(ctx)
		if err != nil {
			return nil, core.ErrInvocation.WithMessagef("locator factory %s failed", sel.Field).WithCause(err)
		}
		value = v
	}

	if !r.adapter.Recognize(value) {
		return resolveValue(res, value)
	}
	return r.resolveLocator(ctx, res, value)
}

// Wrap turns an already obtained value, such as a method result, into a
// single-mode resolution.
func (r *Resolver) Wrap(field string, v interface{}) *Resolved {
	res := &Resolved{Field: field, adapter: r.adapter}
	if r.adapter.Recognize(v) {
		res.Target = v
	} else {
		res.IsValue = true
		res.Value = v
	}
	return res
}

func (r *Resolver) resolveLocator(ctx context.Context, res *Resolved, loc backend.Target) (*Resolved, error) {
	var err error
	switch res.Index.Kind {
	case selector.IndexNone:
		res.Target = loc
	case selector.IndexNumber:
		res.Target, err = r.adapter.Nth(ctx, loc, res.Index.N)
	case selector.IndexFirst:
		res.Target, err = r.adapter.First(ctx, loc)
	case selector.IndexLast:
		res.Target, err = r.adapter.Last(ctx, loc)
	case selector.IndexAll:
		res.Mode, res.Target = ModeAll, loc
	case selector.IndexAny:
		res.Mode, res.Target = ModeAny, loc
	}
	if err != nil {
		return nil, wrapField(res.Field, err)
	}
	return res, nil
}

func (r *Resolver) resolveMethod(ctx context.Context, scr screen.Screen, res *Resolved, m screen.Member, countOf string) (*Resolved, error) {
	res.IsMethodCall = true
	res.Method = m

	switch res.Index.Kind {
	case selector.IndexAll, selector.IndexAny, selector.IndexLast:
		n, err := r.count(ctx, scr, res.Field, countOf)
		if err != nil {
			return nil, err
		}
		res.Count = n
	case selector.IndexFirst, selector.IndexNumber:
		// Bounds are only checked when the screen states a count.
		n, ok, err := r.knownCount(ctx, scr, res.Field, countOf)
		if err != nil {
			return nil, err
		}
		if !ok {
			return res, nil
		}
		res.Count = n
	}

	switch res.Index.Kind {
	case selector.IndexAll:
		res.Mode = ModeAll
	case selector.IndexAny:
		res.Mode = ModeAny
	case selector.IndexFirst, selector.IndexNumber, selector.IndexLast:
		if err := res.checkBounds(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// checkBounds rejects a single index outside the known count.
func (res *Resolved) checkBounds() error {
	if res.Count == 0 {
		return core.ErrNoElements.WithMessagef("%s has no elements", res.Field)
	}
	if i := res.singleIndex(); i < 0 || i >= res.Count {
		return core.ErrIndexOutOfBounds.WithMessagef("%s[%d] out of bounds for %d item(s)", res.Field, i, res.Count)
	}
	return nil
}

// count determines the element count of the parameterized locator field,
// falling back to the configured fallback count when no member yields one.
func (r *Resolver) count(ctx context.Context, scr screen.Screen, field, countOf string) (int, error) {
	n, ok, err := r.knownCount(ctx, scr, field, countOf)
	if err != nil || ok {
		return n, err
	}

	candidates := countCandidates(field)
	if r.fallbackCount > 0 {
		logger.Warn("count of %s unknown (tried %s), using fallback %d", field, strings.Join(candidates, ", "), r.fallbackCount)
		return r.fallbackCount, nil
	}
	return 0, core.ErrCountUnknown.
		WithMessagef("cannot determine element count for %s; tried %s; set countOf", field, strings.Join(candidates, ", ")).
		WithDetails(map[string]interface{}{"field": field, "tried": candidates})
}

// knownCount reads the count from countOf or the first conventional count
// member that yields one. ok is false when no member does.
func (r *Resolver) knownCount(ctx context.Context, scr screen.Screen, field, countOf string) (int, bool, error) {
	if countOf != "" {
		m, ok := scr.Lookup(countOf)
		if !ok {
			return 0, false, core.FieldNotFound(countOf, scr.Names())
		}
		n, ok, err := r.countFrom(ctx, m)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, core.ErrCountUnknown.WithMessagef("%s does not yield a count for %s", countOf, field)
		}
		return n, true, nil
	}

	for _, name := range countCandidates(field) {
		m, ok := scr.Lookup(name)
		if !ok {
			continue
		}
		n, ok, err := r.countFrom(ctx, m)
		if err != nil {
			return 0, false, err
		}
		if ok {
			logger.Debug("count of %s taken from %s: %d", field, name, n)
			return n, true, nil
		}
	}
	return 0, false, nil
}

// countCandidates lists the conventional count members for field.
func countCandidates(field string) []string {
	return []string{
		field + "Count",
		field + "Generic",
		"get" + upperFirst(field) + "Count",
		field + "sCount",
	}
}

// countFrom reads a count from a member: an integer value, a zero-argument
// function returning one, or a locator/collection that is counted.
func (r *Resolver) countFrom(ctx context.Context, m screen.Member) (int, bool, error) {
	v := m.Value()
	if m.IsFunc() {
		if m.Arity() != 0 {
			return 0, false, nil
		}
		out, err := m.Call(ctx)
		if err != nil {
			return 0, false, core.ErrInvocation.WithMessagef("count member %s failed", m.Name).WithCause(err)
		}
		v = out
	}
	if r.adapter.Recognize(v) {
		n, err := r.adapter.Count(ctx, v)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	}
	if n, ok := toInt(v); ok {
		return n, true, nil
	}
	return 0, false, nil
}

func resolveValue(res *Resolved, value interface{}) (*Resolved, error) {
	res.IsValue = true
	res.Value = value
	if res.Index.Kind == selector.IndexNone {
		return res, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		logger.Warn("index %s ignored: %s is a %T, not a collection", res.Index.Kind, res.Field, value)
		return res, nil
	}

	var i int
	switch res.Index.Kind {
	case selector.IndexNumber:
		i = res.Index.N
	case selector.IndexFirst:
		i = 0
	case selector.IndexLast:
		i = rv.Len() - 1
	case selector.IndexAll:
		res.Mode = ModeAll
		return res, nil
	case selector.IndexAny:
		res.Mode = ModeAny
		return res, nil
	}
	if i < 0 || i >= rv.Len() {
		return nil, core.ErrIndexOutOfBounds.WithMessagef("%s[%d] out of bounds for %d item(s)", res.Field, i, rv.Len())
	}
	res.Value = rv.Index(i).Interface()
	return res, nil
}

// Len returns how many targets the resolution covers.
func (res *Resolved) Len(ctx context.Context) (int, error) {
	switch {
	case res.IsValue:
		if res.Mode == ModeSingle {
			return 1, nil
		}
		return reflect.ValueOf(res.Value).Len(), nil
	case res.IsMethodCall:
		if res.Mode == ModeSingle {
			return 1, nil
		}
		return res.Count, nil
	case res.Mode == ModeSingle:
		return 1, nil
	default:
		return res.adapter.Count(ctx, res.Target)
	}
}

// At returns the i-th target of an aggregate resolution, or the single
// target when the mode is single.
func (res *Resolved) At(ctx context.Context, i int) (backend.Target, error) {
	if res.IsValue {
		if res.Mode == ModeSingle {
			return res.Value, nil
		}
		return reflect.ValueOf(res.Value).Index(i).Interface(), nil
	}
	if res.IsMethodCall {
		if res.Mode == ModeSingle {
			i = res.singleIndex()
		}
		return res.call(ctx, i)
	}
	if res.Mode == ModeSingle {
		return res.Target, nil
	}
	t, err := res.adapter.Nth(ctx, res.Target, i)
	if err != nil {
		return nil, wrapField(res.Field, err)
	}
	return t, nil
}

func (res *Resolved) singleIndex() int {
	switch res.Index.Kind {
	case selector.IndexNumber:
		return res.Index.N
	case selector.IndexLast:
		return res.Count - 1
	default:
		return 0
	}
}

func (res *Resolved) call(ctx context.Context, i int) (backend.Target, error) {
	v, err := res.Method.Call(ctx, i)
	if err != nil {
		return nil, core.ErrInvocation.WithMessagef("%s(%d) failed", res.Field, i).WithCause(err)
	}
	return v, nil
}

// Targets expands the resolution into concrete targets: one for single mode,
// every element for the aggregate modes.
func (res *Resolved) Targets(ctx context.Context) ([]backend.Target, error) {
	if res.Mode == ModeSingle {
		t, err := res.At(ctx, 0)
		if err != nil {
			return nil, err
		}
		return []backend.Target{t}, nil
	}
	if !res.IsValue && !res.IsMethodCall {
		return res.adapter.Elements(ctx, res.Target)
	}
	n, err := res.Len(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]backend.Target, 0, n)
	for i := 0; i < n; i++ {
		t, err := res.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Describe renders the resolution for logs and failure messages.
func (res *Resolved) Describe() string {
	switch {
	case res.IsMethodCall && res.Mode == ModeSingle:
		return fmt.Sprintf("%s(%d)", res.Field, res.singleIndex())
	case res.Index.Kind == selector.IndexNone:
		return res.Field
	case res.Index.Kind == selector.IndexNumber:
		return fmt.Sprintf("%s[%d]", res.Field, res.Index.N)
	default:
		return fmt.Sprintf("%s[%s]", res.Field, res.Index.Kind)
	}
}

func wrapField(field string, err error) error {
	if ee, ok := err.(*core.ExecutionError); ok {
		return ee.WithMessagef("%s: %s", field, ee.Message)
	}
	return fmt.Errorf("%s: %w", field, err)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func toInt(v interface{}) (int, bool) {
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
	default:
		return 0, false
	}
}
