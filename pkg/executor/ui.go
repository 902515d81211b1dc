package executor

import (
	"context"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
)

// ui runs a ui-assertion block: visible, hidden, exact text, contained text,
// truthy, falsy, then explicit assertions.
func (r *run) ui(ctx context.Context, d *expectation.UIData) error {
	if d == nil {
		return nil
	}
	steps := []func() error{
		func() error { return r.each(ctx, d.Visible, check.ToBeVisible) },
		func() error { return r.each(ctx, d.Checks.Visible, check.ToBeVisible) },
		func() error { return r.each(ctx, d.Hidden, check.ToBeHidden) },
		func() error { return r.each(ctx, d.Checks.Hidden, check.ToBeHidden) },
		func() error { return r.text(ctx, d.Checks.Text, check.ToHaveText) },
		func() error { return r.text(ctx, d.Checks.Contains, check.ToContainText) },
		func() error { return r.each(ctx, d.Truthy, check.ToBeTruthy) },
		func() error { return r.each(ctx, d.Falsy, check.ToBeFalsy) },
		func() error { return r.assertions(ctx, d.Assertions) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// each applies the named check to every selector.
func (r *run) each(ctx context.Context, selectors []string, name string) error {
	for _, sel := range selectors {
		if err := r.check(ctx, check.Assertion{Fn: sel, Expect: name}); err != nil {
			return err
		}
	}
	return nil
}

// text applies a text matcher to every field in declaration order.
func (r *run) text(ctx context.Context, checks expectation.TextChecks, name string) error {
	for _, tc := range checks {
		if err := r.check(ctx, check.Assertion{Fn: tc.Field, Expect: name, Value: tc.Value}); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) assertions(ctx context.Context, as []check.Assertion) error {
	for _, a := range as {
		if err := r.check(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
