package expect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/core"
)

// ElementExpectation runs UI matchers against one backend target.
type ElementExpectation struct {
	ctx     context.Context
	adapter backend.Adapter
	target  backend.Target
	name    string
	negate  bool
	timeout time.Duration
}

// Element starts a UI expectation on target.
func Element(ctx context.Context, a backend.Adapter, target backend.Target) *ElementExpectation {
	return &ElementExpectation{ctx: ctx, adapter: a, target: target, name: "element"}
}

// Named sets the element name used in failure messages.
func (e *ElementExpectation) Named(name string) *ElementExpectation {
	c := *e
	c.name = name
	return &c
}

// Not negates the following matcher.
func (e *ElementExpectation) Not() *ElementExpectation {
	c := *e
	c.negate = !c.negate
	return &c
}

// Within makes visibility matchers wait up to d. The wait itself is performed
// by the driver.
func (e *ElementExpectation) Within(d time.Duration) *ElementExpectation {
	c := *e
	c.timeout = d
	return &c
}

func (e *ElementExpectation) verdict(pass bool, verb string, expected, actual interface{}) error {
	if pass != e.negate {
		return nil
	}
	not := ""
	if e.negate {
		not = "not "
	}
	msg := fmt.Sprintf("expected %s %sto %s", e.name, not, verb)
	if expected != nil {
		msg += " " + Format(expected)
	}
	if actual != nil {
		msg += ", got " + Format(actual)
	}
	return core.AssertionFailed(msg, expected, actual)
}

// driverError reports a driver failure. It is not an assertion failure.
func (e *ElementExpectation) driverError(op string, err error) error {
	return fmt.Errorf("%s: %s: %w", e.name, op, err)
}

// ToBeVisible checks visibility, waiting through the driver when a timeout is set.
func (e *ElementExpectation) ToBeVisible() error {
	if e.timeout > 0 {
		return e.wait(!e.negate)
	}
	v, err := e.adapter.IsVisible(e.ctx, e.target)
	if err != nil {
		return e.driverError("isVisible", err)
	}
	return e.verdict(v, "be visible", nil, nil)
}

// ToBeHidden checks the element is not visible.
func (e *ElementExpectation) ToBeHidden() error {
	if e.timeout > 0 {
		return e.wait(e.negate)
	}
	v, err := e.adapter.IsVisible(e.ctx, e.target)
	if err != nil {
		return e.driverError("isVisible", err)
	}
	return e.verdict(!v, "be hidden", nil, nil)
}

func (e *ElementExpectation) wait(visible bool) error {
	var err error
	verb := "be hidden"
	if visible {
		verb = "be visible"
		err = e.adapter.WaitVisible(e.ctx, e.target, e.timeout)
	} else {
		err = e.adapter.WaitHidden(e.ctx, e.target, e.timeout)
	}
	if err != nil {
		return core.ErrAssertionFailure.WithMessagef("expected %s to %s within %s", e.name, verb, e.timeout).WithCause(err)
	}
	return nil
}

// ToBeEnabled checks the element is enabled.
func (e *ElementExpectation) ToBeEnabled() error {
	v, err := e.adapter.IsEnabled(e.ctx, e.target)
	if err != nil {
		return e.driverError("isEnabled", err)
	}
	return e.verdict(v, "be enabled", nil, nil)
}

// ToBeDisabled checks the element is disabled.
func (e *ElementExpectation) ToBeDisabled() error {
	v, err := e.adapter.IsEnabled(e.ctx, e.target)
	if err != nil {
		return e.driverError("isEnabled", err)
	}
	return e.verdict(!v, "be disabled", nil, nil)
}

// ToBeChecked checks the element is checked or selected.
func (e *ElementExpectation) ToBeChecked() error {
	v, err := e.adapter.IsChecked(e.ctx, e.target)
	if err != nil {
		return e.driverError("isChecked", err)
	}
	return e.verdict(v, "be checked", nil, nil)
}

// ToHaveText checks the trimmed text equals expected.
func (e *ElementExpectation) ToHaveText(expected string) error {
	text, err := e.adapter.Text(e.ctx, e.target)
	if err != nil {
		return e.driverError("getText", err)
	}
	return e.verdict(strings.TrimSpace(text) == strings.TrimSpace(expected), "have text", expected, text)
}

// ToContainText checks the text contains expected.
func (e *ElementExpectation) ToContainText(expected string) error {
	text, err := e.adapter.Text(e.ctx, e.target)
	if err != nil {
		return e.driverError("getText", err)
	}
	return e.verdict(strings.Contains(text, expected), "contain text", expected, text)
}

// ToHaveValue checks the input value.
func (e *ElementExpectation) ToHaveValue(expected string) error {
	v, err := e.adapter.Value(e.ctx, e.target)
	if err != nil {
		return e.driverError("getValue", err)
	}
	return e.verdict(v == expected, "have value", expected, v)
}

// ToHaveAttribute checks an attribute value.
func (e *ElementExpectation) ToHaveAttribute(name, expected string) error {
	v, err := e.adapter.Attribute(e.ctx, e.target, name)
	if err != nil {
		return e.driverError("getAttribute", err)
	}
	return e.verdict(v == expected, fmt.Sprintf("have attribute %s =", name), expected, v)
}

// ToHaveCount checks the number of elements the target matches.
func (e *ElementExpectation) ToHaveCount(expected int) error {
	n, err := e.adapter.Count(e.ctx, e.target)
	if err != nil {
		return e.driverError("count", err)
	}
	return e.verdict(n == expected, "have count", expected, n)
}
