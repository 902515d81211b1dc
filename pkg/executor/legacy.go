package executor

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
)

// LegacyType is the block type reported for phases of a legacy document.
const LegacyType = "legacy"

// legacyTasks turns a legacy document into phases run in fixed order:
// prerequisites, functions, visible, hidden, truthy, falsy, assertions,
// checks, then the custom expect function. Empty phases are left out.
func (r *run) legacyTasks(d *expectation.Legacy) []task {
	var tasks []task
	add := func(label string, present bool, exec func(ctx context.Context) error) {
		if !present {
			return
		}
		tasks = append(tasks, task{
			result:  core.BlockResult{Type: LegacyType, Label: label, Order: float64(len(tasks))},
			enabled: true,
			exec:    exec,
		})
	}

	add("prerequisites", len(d.Prerequisites) > 0, func(ctx context.Context) error {
		for i := range d.Prerequisites {
			if err := r.call(ctx, &d.Prerequisites[i]); err != nil {
				return err
			}
		}
		return nil
	})
	add("functions", len(d.Functions) > 0, func(ctx context.Context) error {
		for _, fn := range d.Functions {
			if err := r.function(ctx, fn); err != nil {
				return err
			}
		}
		return nil
	})
	add("visible", len(d.Visible) > 0, func(ctx context.Context) error {
		return r.each(ctx, d.Visible, check.ToBeVisible)
	})
	add("hidden", len(d.Hidden) > 0, func(ctx context.Context) error {
		return r.each(ctx, d.Hidden, check.ToBeHidden)
	})
	add("truthy", len(d.Truthy) > 0, func(ctx context.Context) error {
		return r.each(ctx, d.Truthy, check.ToBeTruthy)
	})
	add("falsy", len(d.Falsy) > 0, func(ctx context.Context) error {
		return r.each(ctx, d.Falsy, check.ToBeFalsy)
	})
	add("assertions", len(d.Assertions) > 0, func(ctx context.Context) error {
		return r.assertions(ctx, d.Assertions)
	})

	c := d.Checks
	add("checks", len(c.Visible)+len(c.Hidden)+len(c.Text)+len(c.Contains) > 0, func(ctx context.Context) error {
		if err := r.each(ctx, c.Visible, check.ToBeVisible); err != nil {
			return err
		}
		if err := r.each(ctx, c.Hidden, check.ToBeHidden); err != nil {
			return err
		}
		if err := r.text(ctx, c.Text, check.ToHaveText); err != nil {
			return err
		}
		return r.text(ctx, c.Contains, check.ToContainText)
	})

	add("expect", d.Expect != "", func(ctx context.Context) error {
		fn, ok := r.in.opts.Registry.Lookup(d.Expect)
		if !ok {
			return core.ErrUnknownCustomCode.WithMessagef("no custom code registered for %q", d.Expect)
		}
		if err := r.runCustom(ctx, fn); err != nil {
			return fmt.Errorf("%s: %w", d.Expect, err)
		}
		return nil
	})
	return tasks
}

// function runs one entry of a legacy functions map. Entries with an expect
// are checks on the method's result; the rest are plain calls.
func (r *run) function(ctx context.Context, fn expectation.FunctionSpec) error {
	if fn.Expect != "" {
		return r.check(ctx, check.Assertion{
			Fn:             fn.Method,
			Expect:         fn.Expect,
			Value:          fn.Value,
			Params:         fn.Args,
			StoreAs:        fn.StoreAs,
			PersistStoreAs: fn.PersistStoreAs,
		})
	}
	return r.call(ctx, &expectation.FunctionCall{
		Method:         fn.Method,
		Args:           fn.Args,
		StoreAs:        fn.StoreAs,
		PersistStoreAs: fn.PersistStoreAs,
	})
}
