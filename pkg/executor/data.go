package executor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expect"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/template"
)

// dataAssertions runs every assertion of a data-assertion block, stopping at
// the first mismatch.
func (r *run) dataAssertions(as []expectation.DataAssertion) error {
	for _, a := range as {
		left := r.templates.Resolve(a.Left, r.data)
		right := r.templates.Resolve(a.Right, r.data)
		if err := compare(a, left, right); err != nil {
			return err
		}
	}
	return nil
}

// compare applies a's operator to the resolved operands.
func compare(a expectation.DataAssertion, left, right interface{}) error {
	pass, err := apply(a.Operator, left, right)
	if errors.Is(err, core.ErrUnknownOperator) {
		return err
	}
	if pass && err == nil {
		return nil
	}

	msg := fmt.Sprintf("expected %s %s", expect.Format(left), a.Operator)
	if !expectation.IsUnary(a.Operator) {
		msg += " " + expect.Format(right)
	}
	if a.Message != "" {
		msg = a.Message + ": " + msg
	}
	failure := core.AssertionFailed(msg, right, left)
	if err != nil {
		// operands that cannot be compared still fail with both values shown
		failure = failure.WithCause(err)
	}
	if a.Operator == expectation.OpDeepEquals {
		failure = failure.WithDetails(map[string]interface{}{"diff": expect.Diff(right, left)})
	}
	return failure
}

// apply reports whether op holds. A non-nil error means the operands could
// not be compared at all.
func apply(op string, left, right interface{}) (bool, error) {
	switch op {
	case expectation.OpEquals:
		return expect.Equal(left, right), nil
	case expectation.OpNotEquals:
		return !expect.Equal(left, right), nil
	case expectation.OpDeepEquals:
		return expect.DeepEqual(left, right), nil

	case expectation.OpContains, expectation.OpNotContains:
		ok, err := expect.Contains(left, right)
		if err != nil {
			return false, err
		}
		return ok == (op == expectation.OpContains), nil

	case expectation.OpGreaterThan, expectation.OpGreaterThanOrEqual, expectation.OpLessThan, expectation.OpLessThanOrEqual:
		c, err := expect.Compare(left, right)
		if err != nil {
			return false, err
		}
		switch op {
		case expectation.OpGreaterThan:
			return c > 0, nil
		case expectation.OpGreaterThanOrEqual:
			return c >= 0, nil
		case expectation.OpLessThan:
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	case expectation.OpMatches:
		re, err := regexp.Compile(template.Stringify(right))
		if err != nil {
			return false, fmt.Errorf("invalid pattern: %w", err)
		}
		return re.MatchString(template.Stringify(left)), nil
	case expectation.OpStartsWith:
		return strings.HasPrefix(template.Stringify(left), template.Stringify(right)), nil
	case expectation.OpEndsWith:
		return strings.HasSuffix(template.Stringify(left), template.Stringify(right)), nil

	case expectation.OpLengthEquals, expectation.OpLengthGreaterThan, expectation.OpLengthLessThan:
		n, ok := expect.Length(left)
		if !ok {
			return false, fmt.Errorf("%s has no length", expect.Format(left))
		}
		want, ok := toFloat(right)
		if !ok {
			return false, fmt.Errorf("%s is not a number", expect.Format(right))
		}
		switch op {
		case expectation.OpLengthEquals:
			return float64(n) == want, nil
		case expectation.OpLengthGreaterThan:
			return float64(n) > want, nil
		default:
			return float64(n) < want, nil
		}

	case expectation.OpIsEmpty:
		return expect.IsEmpty(left), nil
	case expectation.OpIsNotEmpty:
		return !expect.IsEmpty(left), nil
	case expectation.OpIsTrue:
		return left == true, nil
	case expectation.OpIsFalse:
		return left == false, nil
	}
	return false, core.ErrUnknownOperator.WithMessagef("unknown operator %q", op)
}

// toFloat accepts numbers and numeric strings.
func toFloat(v interface{}) (float64, bool) {
	if f, ok := expect.ToFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}
