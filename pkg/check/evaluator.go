package check

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expect"
	"github.com/devicelab-dev/screen-expect/pkg/locate"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/selector"
	"github.com/devicelab-dev/screen-expect/pkg/template"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// Config wires an Evaluator.
type Config struct {
	Resolver  *locate.Resolver
	Templates *template.Resolver
	Store     *vars.Store
	// Rand picks the element for any-mode checks. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Timeout is handed to the driver for visibility matchers. Zero checks
	// the current state without waiting.
	Timeout time.Duration
}

// Evaluator runs checks. Like the variable store it is not safe for
// concurrent use.
type Evaluator struct {
	resolver  *locate.Resolver
	templates *template.Resolver
	parser    *selector.Parser
	store     *vars.Store
	rng       *rand.Rand
	timeout   time.Duration
}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Evaluator{
		resolver:  cfg.Resolver,
		templates: cfg.Templates,
		parser:    selector.NewParser(cfg.Templates),
		store:     cfg.Store,
		rng:       rng,
		timeout:   cfg.Timeout,
	}
}

// Evaluate runs a against scr. It returns the produced value: the getter
// result, the boolean outcome, or the asserted subject.
func (ev *Evaluator) Evaluate(ctx context.Context, scr screen.Screen, a Assertion, data map[string]interface{}) (interface{}, error) {
	cat, ok := Lookup(a.Expect)
	if !ok {
		return nil, core.ErrUnknownAssertionType.WithMessagef("unknown check %q on %s", a.Expect, a.Fn)
	}

	expected := ev.templates.Resolve(a.Value, data)
	args := make([]interface{}, len(a.Arguments()))
	for i, arg := range a.Arguments() {
		args[i] = ev.templates.Resolve(arg, data)
	}

	out, err := ev.run(ctx, scr, a, cat, expected, args, data)
	if err != nil {
		if cat == BooleanCheck && a.HasStoreTarget() && softFailable(err) {
			logger.Warn("%s %s failed, storing false: %v", a.Fn, a.Expect, err)
			if serr := ev.capture(a, false, data); serr != nil {
				return nil, serr
			}
			return false, nil
		}
		if a.Message != "" {
			var ee *core.ExecutionError
			if errors.As(err, &ee) && ee.Category == core.ErrCategoryAssertion {
				return nil, ee.WithMessage(a.Message + ": " + ee.Message)
			}
		}
		return nil, err
	}

	logger.Debug("%s %s passed", a.Fn, a.Expect)
	if err := ev.capture(a, out, data); err != nil {
		return nil, err
	}
	return out, nil
}

// softFailable excludes cancellation and malformed documents from the
// boolean soft-fail.
func softFailable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return core.CategoryOf(err) != core.ErrCategoryDocument
}

// capture writes v under storeAs and, mirrored into data, persistStoreAs.
func (ev *Evaluator) capture(a Assertion, v interface{}, data map[string]interface{}) error {
	if a.StoreAs != "" {
		if err := ev.store.Store(a.StoreAs, v); err != nil {
			return err
		}
	}
	if a.PersistStoreAs != "" {
		if err := ev.store.Store(a.PersistStoreAs, v, vars.PersistTo(data)); err != nil {
			return fmt.Errorf("persist %s: %w", a.PersistStoreAs, err)
		}
	}
	return nil
}

// Subject resolves the assertion's fn: a selector, or a screen method that is
// invoked with args and whose result becomes the subject.
func (ev *Evaluator) Subject(ctx context.Context, scr screen.Screen, a Assertion, args []interface{}, data map[string]interface{}) (*locate.Resolved, error) {
	sel := ev.parser.Parse(a.Fn, data)
	var opts []locate.Option
	if a.CountOf != "" {
		opts = append(opts, locate.CountOf(a.CountOf))
	}

	if !a.IsLocator() {
		m, ok := scr.Lookup(sel.Field)
		if !ok {
			return nil, core.FieldNotFound(sel.Field, scr.Names())
		}
		if m.IsFunc() && (len(args) > 0 || (sel.Index.Kind == selector.IndexNone && !m.TakesIndex())) {
			out, err := m.Call(ctx, args...)
			if err != nil {
				return nil, core.ErrInvocation.WithMessagef("%s failed", sel.Field).WithCause(err)
			}
			return ev.resolver.Wrap(sel.Field, out), nil
		}
	}
	return ev.resolver.Resolve(ctx, scr, sel, opts...)
}

func (ev *Evaluator) run(ctx context.Context, scr screen.Screen, a Assertion, cat Category, expected interface{}, args []interface{}, data map[string]interface{}) (interface{}, error) {
	res, err := ev.Subject(ctx, scr, a, args, data)
	if err != nil {
		return nil, err
	}

	if a.Expect == GetCount || a.Expect == ToHaveCount {
		n, err := ev.count(ctx, res)
		if err != nil {
			return nil, err
		}
		if a.Expect == GetCount {
			return n, nil
		}
		return n, expect.That(n).As(res.Describe() + " count").ToBe(expected)
	}

	switch res.Mode {
	case locate.ModeAll:
		n, err := res.Len(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, core.ErrNoElements.WithMessagef("%s matched no elements", res.Describe())
		}
		values := make([]interface{}, 0, n)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			t, err := res.At(ctx, i)
			if err != nil {
				return nil, err
			}
			v, err := ev.apply(ctx, a, res, t, fmt.Sprintf("%s[%d]", res.Field, i), expected, args)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		if cat == BooleanCheck {
			return true, nil
		}
		return values, nil

	case locate.ModeAny:
		n, err := res.Len(ctx)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, core.ErrNoElements.WithMessagef("%s matched no elements", res.Describe())
		}
		i := ev.rng.Intn(n)
		logger.Debug("%s[any] picked element %d of %d", res.Field, i, n)
		t, err := res.At(ctx, i)
		if err != nil {
			return nil, err
		}
		return ev.apply(ctx, a, res, t, fmt.Sprintf("%s[%d]", res.Field, i), expected, args)

	default:
		t, err := res.At(ctx, 0)
		if err != nil {
			return nil, err
		}
		return ev.apply(ctx, a, res, t, res.Describe(), expected, args)
	}
}

func (ev *Evaluator) count(ctx context.Context, res *locate.Resolved) (int, error) {
	if res.Mode != locate.ModeSingle {
		return res.Len(ctx)
	}
	if res.IsValue {
		n, ok := expect.Length(res.Value)
		if !ok {
			return 0, core.ErrAssertionFailure.WithMessagef("%s is a %T and has no count", res.Field, res.Value)
		}
		return n, nil
	}
	t, err := res.At(ctx, 0)
	if err != nil {
		return 0, err
	}
	return ev.resolver.Adapter().Count(ctx, t)
}

// apply runs the check against one target.
func (ev *Evaluator) apply(ctx context.Context, a Assertion, res *locate.Resolved, t backend.Target, label string, expected interface{}, args []interface{}) (interface{}, error) {
	ad := ev.resolver.Adapter()
	isValue := res.IsValue

	switch a.Expect {
	case GetValue:
		if isValue {
			return t, nil
		}
		return ad.Value(ctx, t)
	case GetText:
		if isValue {
			return template.Stringify(t), nil
		}
		return ad.Text(ctx, t)
	case GetAttribute:
		name := attributeName(args, expected)
		if isValue {
			return nil, core.ErrAssertionFailure.WithMessagef("%s is a value, cannot read attribute %q", label, name)
		}
		return ad.Attribute(ctx, t, name)

	case IsVisible, IsHidden, IsEnabled, IsChecked, HasText:
		ok, err := ev.boolean(ctx, a.Expect, t, isValue, expected)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, core.AssertionFailed(fmt.Sprintf("%s: %s is false", label, a.Expect), true, false)
		}
		return true, nil
	}

	if IsUI(a.Expect) {
		if isValue {
			return nil, core.ErrUnknownAssertionType.WithMessagef("%s needs a locator, %s is a %T", a.Expect, label, t)
		}
		return true, ev.ui(ctx, a.Expect, expect.Element(ctx, ad, t).Named(label), args, expected)
	}

	// value matchers; truthiness of a locator means visibility
	if !isValue {
		el := expect.Element(ctx, ad, t).Named(label)
		switch a.Expect {
		case ToBeTruthy:
			return true, el.ToBeVisible()
		case ToBeFalsy:
			return false, el.ToBeHidden()
		}
		text, err := ad.Text(ctx, t)
		if err != nil {
			return nil, err
		}
		t = text
	}
	return t, valueMatcher(a.Expect, expect.That(t).As(label), expected)
}

func (ev *Evaluator) boolean(ctx context.Context, name string, t backend.Target, isValue bool, expected interface{}) (bool, error) {
	if isValue {
		switch name {
		case IsHidden:
			return !expect.Truthy(t), nil
		case HasText:
			s := template.Stringify(t)
			if expected == nil {
				return s != "", nil
			}
			return strings.Contains(s, template.Stringify(expected)), nil
		default:
			return expect.Truthy(t), nil
		}
	}

	ad := ev.resolver.Adapter()
	switch name {
	case IsVisible:
		return ad.IsVisible(ctx, t)
	case IsHidden:
		v, err := ad.IsVisible(ctx, t)
		return !v, err
	case IsEnabled:
		return ad.IsEnabled(ctx, t)
	case IsChecked:
		return ad.IsChecked(ctx, t)
	default:
		text, err := ad.Text(ctx, t)
		if err != nil {
			return false, err
		}
		if expected == nil {
			return strings.TrimSpace(text) != "", nil
		}
		return strings.Contains(text, template.Stringify(expected)), nil
	}
}

func (ev *Evaluator) ui(ctx context.Context, name string, el *expect.ElementExpectation, args []interface{}, expected interface{}) error {
	el = el.Within(ev.timeout)
	switch name {
	case ToBeVisible:
		return el.ToBeVisible()
	case ToBeHidden:
		return el.ToBeHidden()
	case ToBeEnabled:
		return el.ToBeEnabled()
	case ToBeDisabled:
		return el.ToBeDisabled()
	case ToBeChecked:
		return el.ToBeChecked()
	case ToHaveText:
		return el.ToHaveText(template.Stringify(expected))
	case ToContainText:
		return el.ToContainText(template.Stringify(expected))
	case ToHaveValue:
		return el.ToHaveValue(template.Stringify(expected))
	case ToHaveAttribute:
		return el.ToHaveAttribute(attributeName(args, nil), template.Stringify(expected))
	}
	return core.ErrUnknownAssertionType.WithMessagef("unknown check %q", name)
}

func valueMatcher(name string, e *expect.Expectation, expected interface{}) error {
	switch name {
	case ToBe:
		return e.ToBe(expected)
	case ToEqual:
		return e.ToEqual(expected)
	case ToContain:
		return e.ToContain(expected)
	case ToMatch:
		return e.ToMatch(template.Stringify(expected))
	case ToBeGreaterThan:
		return e.ToBeGreaterThan(expected)
	case ToBeGreaterThanOrEqual:
		return e.ToBeGreaterThanOrEqual(expected)
	case ToBeLessThan:
		return e.ToBeLessThan(expected)
	case ToBeLessThanOrEqual:
		return e.ToBeLessThanOrEqual(expected)
	case ToBeTruthy:
		return e.ToBeTruthy()
	case ToBeFalsy:
		return e.ToBeFalsy()
	case ToBeNull:
		return e.ToBeNull()
	case ToBeDefined:
		return e.ToBeDefined()
	case ToHaveLength:
		return e.ToHaveLength(expected)
	}
	return core.ErrUnknownAssertionType.WithMessagef("unknown check %q", name)
}

// attributeName takes the attribute from the first argument, else from value.
func attributeName(args []interface{}, value interface{}) string {
	if len(args) > 0 {
		return template.Stringify(args[0])
	}
	if value != nil {
		return template.Stringify(value)
	}
	return ""
}
