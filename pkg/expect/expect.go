// Package expect is the matcher library behind hard assertions, data
// operators and custom code. Matchers return nil on success and a
// core.ErrAssertionFailure carrying expected/actual details otherwise.
package expect

import (
	"fmt"
	"regexp"

	"github.com/devicelab-dev/screen-expect/pkg/core"
)

// Expectation holds the actual value under test.
type Expectation struct {
	actual interface{}
	negate bool
	label  string
}

// That starts an expectation on actual.
func That(actual interface{}) *Expectation {
	return &Expectation{actual: actual}
}

// Not negates the following matcher.
func (e *Expectation) Not() *Expectation {
	c := *e
	c.negate = !c.negate
	return &c
}

// As names the value in failure messages.
func (e *Expectation) As(label string) *Expectation {
	c := *e
	c.label = label
	return &c
}

// Actual returns the value under test.
func (e *Expectation) Actual() interface{} {
	return e.actual
}

func (e *Expectation) subject() string {
	if e.label != "" {
		return fmt.Sprintf("%s (%s)", e.label, Format(e.actual))
	}
	return Format(e.actual)
}

// verdict turns a raw match into the final outcome honoring Not. The
// optional expected value is appended to the message.
func (e *Expectation) verdict(pass bool, verb string, expected ...interface{}) *core.ExecutionError {
	if pass != e.negate {
		return nil
	}
	not := ""
	if e.negate {
		not = "not "
	}
	msg := fmt.Sprintf("expected %s %sto %s", e.subject(), not, verb)
	var want interface{}
	if len(expected) > 0 {
		want = expected[0]
		msg += " " + Format(want)
	}
	return core.AssertionFailed(msg, want, e.actual)
}

func result(err *core.ExecutionError) error {
	if err == nil {
		return nil
	}
	return err
}

// ToBe checks strict equality of scalars.
func (e *Expectation) ToBe(expected interface{}) error {
	return result(e.verdict(Equal(e.actual, expected), "be", expected))
}

// ToEqual checks structural equality.
func (e *Expectation) ToEqual(expected interface{}) error {
	if err := e.verdict(DeepEqual(e.actual, expected), "equal", expected); err != nil {
		if !e.negate {
			err.Details["diff"] = Diff(expected, e.actual)
		}
		return err
	}
	return nil
}

// ToContain checks substring, element or key containment.
func (e *Expectation) ToContain(item interface{}) error {
	ok, err := Contains(e.actual, item)
	if err != nil {
		return core.ErrAssertionFailure.WithMessagef("toContain: %v", err)
	}
	return result(e.verdict(ok, "contain", item))
}

// ToMatch checks a string against a regular expression.
func (e *Expectation) ToMatch(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return core.ErrAssertionFailure.WithMessagef("toMatch: invalid pattern %q", pattern).WithCause(err)
	}
	s, ok := e.actual.(string)
	if !ok {
		s = fmt.Sprint(e.actual)
	}
	return result(e.verdict(re.MatchString(s), "match", pattern))
}

func (e *Expectation) order(expected interface{}, verb string, accept func(int) bool) error {
	c, err := Compare(e.actual, expected)
	if err != nil {
		return core.ErrAssertionFailure.WithMessagef("%s: %v", verb, err).WithDetails(map[string]interface{}{
			"expected": expected,
			"actual":   e.actual,
		})
	}
	return result(e.verdict(accept(c), verb, expected))
}

// ToBeGreaterThan checks actual > expected.
func (e *Expectation) ToBeGreaterThan(expected interface{}) error {
	return e.order(expected, "be greater than", func(c int) bool { return c > 0 })
}

// ToBeGreaterThanOrEqual checks actual >= expected.
func (e *Expectation) ToBeGreaterThanOrEqual(expected interface{}) error {
	return e.order(expected, "be greater than or equal to", func(c int) bool { return c >= 0 })
}

// ToBeLessThan checks actual < expected.
func (e *Expectation) ToBeLessThan(expected interface{}) error {
	return e.order(expected, "be less than", func(c int) bool { return c < 0 })
}

// ToBeLessThanOrEqual checks actual <= expected.
func (e *Expectation) ToBeLessThanOrEqual(expected interface{}) error {
	return e.order(expected, "be less than or equal to", func(c int) bool { return c <= 0 })
}

// ToBeTruthy checks script truthiness.
func (e *Expectation) ToBeTruthy() error {
	return result(e.verdict(Truthy(e.actual), "be truthy"))
}

// ToBeFalsy checks script falsiness.
func (e *Expectation) ToBeFalsy() error {
	return result(e.verdict(!Truthy(e.actual), "be falsy"))
}

// ToBeNull checks for nil.
func (e *Expectation) ToBeNull() error {
	return result(e.verdict(Normalize(e.actual) == nil, "be null"))
}

// ToBeDefined checks for a non-nil value.
func (e *Expectation) ToBeDefined() error {
	return result(e.verdict(Normalize(e.actual) != nil, "be defined"))
}

// ToHaveLength checks the length of a string or collection.
func (e *Expectation) ToHaveLength(expected interface{}) error {
	n, ok := Length(e.actual)
	if !ok {
		return core.AssertionFailed(fmt.Sprintf("expected %s to have a length", e.subject()), expected, e.actual)
	}
	return result(e.As(fmt.Sprintf("length %d of", n)).verdict(Equal(n, expected), "have length", expected))
}
