package expect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/driver/mock"
)

type user struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestValueMatchers(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		pass bool
	}{
		{"toBe int vs float", func() error { return That(5).ToBe(5.0) }, true},
		{"toBe string", func() error { return That("a").ToBe("b") }, false},
		{"toBe not", func() error { return That("a").Not().ToBe("b") }, true},
		{"toEqual struct vs map", func() error {
			return That(user{Name: "ann", Age: 3}).ToEqual(map[string]interface{}{"name": "ann", "age": 3})
		}, true},
		{"toEqual slices", func() error { return That([]int{1, 2}).ToEqual([]interface{}{1.0, 2.0}) }, true},
		{"toEqual mismatch", func() error { return That([]int{1, 2}).ToEqual([]int{2, 1}) }, false},
		{"toContain substring", func() error { return That("hello world").ToContain("lo w") }, true},
		{"toContain element", func() error { return That([]interface{}{"a", 2}).ToContain(2) }, true},
		{"toContain key", func() error { return That(map[string]int{"k": 1}).ToContain("k") }, true},
		{"toContain missing", func() error { return That([]string{"a"}).ToContain("b") }, false},
		{"toMatch", func() error { return That("order-123").ToMatch(`^order-\d+$`) }, true},
		{"toMatch miss", func() error { return That("order").ToMatch(`\d`) }, false},
		{"greaterThan", func() error { return That(5).ToBeGreaterThan(2) }, true},
		{"greaterThan numeric string", func() error { return That("10").ToBeGreaterThan(9) }, true},
		{"greaterThan fail", func() error { return That(1).ToBeGreaterThan(2) }, false},
		{"greaterThanOrEqual", func() error { return That(2).ToBeGreaterThanOrEqual(2) }, true},
		{"lessThan", func() error { return That(1.5).ToBeLessThan(2) }, true},
		{"lessThanOrEqual fail", func() error { return That(3).ToBeLessThanOrEqual(2) }, false},
		{"truthy empty slice", func() error { return That([]int{}).ToBeTruthy() }, true},
		{"truthy zero", func() error { return That(0).ToBeTruthy() }, false},
		{"falsy empty string", func() error { return That("").ToBeFalsy() }, true},
		{"null", func() error { return That(nil).ToBeNull() }, true},
		{"null typed nil pointer", func() error { return That((*user)(nil)).ToBeNull() }, true},
		{"defined", func() error { return That(0).ToBeDefined() }, true},
		{"defined nil", func() error { return That(nil).ToBeDefined() }, false},
		{"length string", func() error { return That("héllo").ToHaveLength(5) }, true},
		{"length slice", func() error { return That([]int{1}).ToHaveLength(2) }, false},
		{"length of number", func() error { return That(3).ToHaveLength(1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.pass && err != nil {
				t.Errorf("unexpected failure: %v", err)
			}
			if !tt.pass {
				if err == nil {
					t.Error("expected failure")
				} else if !errors.Is(err, core.ErrAssertionFailure) {
					t.Errorf("error = %v, want ErrAssertionFailure", err)
				}
			}
		})
	}
}

func TestFailureDetails(t *testing.T) {
	err := That(1).As("count").ToBeGreaterThan(2)
	var ee *core.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v", err)
	}
	if ee.Details["expected"] != 2 || ee.Details["actual"] != 1 {
		t.Errorf("Details = %v", ee.Details)
	}
	if !strings.Contains(ee.Message, "1") || !strings.Contains(ee.Message, "2") || !strings.Contains(ee.Message, "count") {
		t.Errorf("Message = %q", ee.Message)
	}

	err = That([]int{1}).ToEqual([]int{2})
	if !errors.As(err, &ee) || ee.Details["diff"] == "" {
		t.Errorf("toEqual failure should carry a diff: %v", err)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b    interface{}
		want    int
		wantErr bool
	}{
		{1, 2, -1, false},
		{2.0, 2, 0, false},
		{"b", "a", 1, false},
		{"10", "9", 1, false},
		{true, 1, 0, true},
	}
	for _, tt := range tests {
		got, err := Compare(tt.a, tt.b)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, %v", tt.a, tt.b, got, err)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []interface{}{nil, "", []int{}, map[string]int{}} {
		if !IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = false", v)
		}
	}
	for _, v := range []interface{}{"x", []int{1}, 0} {
		if IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = true", v)
		}
	}
}

func TestElementMatchers(t *testing.T) {
	ctx := context.Background()
	rec := mock.NewRecorder()
	a := backend.Eager{}
	box := mock.NewElement(rec, &mock.ElementInfo{
		Text: "  Remember me ", Value: "on", Visible: true, Enabled: false, Checked: true,
		Attributes: map[string]string{"role": "checkbox"},
	})
	rows := mock.Elements(rec, mock.Visible("a"), mock.Visible("b"))
	el := Element(ctx, a, box).Named("remember")

	pass := []error{
		el.ToBeVisible(),
		el.Not().ToBeHidden(),
		el.ToBeDisabled(),
		el.ToBeChecked(),
		el.ToHaveText("Remember me"),
		el.ToContainText("Remember"),
		el.ToHaveValue("on"),
		el.ToHaveAttribute("role", "checkbox"),
		el.Within(time.Second).ToBeVisible(),
		Element(ctx, a, rows).ToHaveCount(2),
	}
	for i, err := range pass {
		if err != nil {
			t.Errorf("matcher %d failed: %v", i, err)
		}
	}

	fail := []error{
		el.ToBeHidden(),
		el.ToBeEnabled(),
		el.ToHaveText("Forget me"),
		el.Within(time.Second).ToBeHidden(),
		Element(ctx, a, rows).ToHaveCount(3),
	}
	for i, err := range fail {
		if !errors.Is(err, core.ErrAssertionFailure) {
			t.Errorf("matcher %d error = %v, want ErrAssertionFailure", i, err)
		}
	}

	if err := el.ToHaveText("Forget me"); !strings.Contains(err.Error(), "remember") {
		t.Errorf("message should name the element: %v", err)
	}
}

func TestElementMatchers_DriverErrorIsNotAssertionFailure(t *testing.T) {
	rec := mock.NewRecorder()
	rec.FailOn["getText"] = errors.New("stale element")
	err := Element(context.Background(), backend.Eager{}, mock.NewElement(rec, mock.Visible("x"))).ToHaveText("x")
	if err == nil || errors.Is(err, core.ErrAssertionFailure) {
		t.Errorf("error = %v, want plain driver error", err)
	}
}
