package backend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/driver/mock"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    backend.Kind
		wantErr bool
	}{
		{"", backend.KindAuto, false},
		{"auto", backend.KindAuto, false},
		{"Chained", backend.KindChained, false},
		{"playwright", backend.KindChained, false},
		{"eager", backend.KindEager, false},
		{"webdriverio", backend.KindEager, false},
		{"selenium", backend.KindAuto, true},
	}
	for _, tt := range tests {
		got, err := backend.ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	rec := mock.NewRecorder()
	chained := screen.FromMap(map[string]interface{}{"page": mock.NewPage(rec, nil)})
	eager := screen.FromMap(map[string]interface{}{"title": mock.NewElement(rec, mock.Visible("x"))})

	if got := backend.Detect(chained); got != backend.KindChained {
		t.Errorf("Detect(chained) = %s", got)
	}
	if got := backend.Detect(eager); got != backend.KindEager {
		t.Errorf("Detect(eager) = %s", got)
	}
	if _, ok := backend.For(backend.KindAuto, chained).(backend.Chained); !ok {
		t.Error("For(auto) should pick the chained adapter")
	}
	if _, ok := backend.For(backend.KindChained, eager).(backend.Chained); !ok {
		t.Error("explicit kind should win over detection")
	}
}

func TestChained_NavigationIsNotBoundsChecked(t *testing.T) {
	ctx := context.Background()
	rec := mock.NewRecorder()
	rows := mock.NewLocator(rec, "rows", mock.Visible("a"), mock.Visible("b"))
	a := backend.Chained{}

	if !a.Recognize(rows) || a.Recognize("rows") {
		t.Fatal("Recognize mismatch")
	}

	third, err := a.Nth(ctx, rows, 2)
	if err != nil {
		t.Fatalf("Nth(2) should defer to the driver, got %v", err)
	}
	if visible, err := a.IsVisible(ctx, third); err != nil || visible {
		t.Errorf("IsVisible(rows[2]) = %v, %v; want false, nil", visible, err)
	}
	if _, err := a.Text(ctx, third); err == nil {
		t.Error("Text(rows[2]) should fail in the driver")
	}

	last, _ := a.Last(ctx, rows)
	if text, err := a.Text(ctx, last); err != nil || text != "b" {
		t.Errorf("Text(last) = %q, %v", text, err)
	}

	targets, err := a.Elements(ctx, rows)
	if err != nil || len(targets) != 2 {
		t.Fatalf("Elements() = %d, %v", len(targets), err)
	}
	if rec.Count("count") != 1 {
		t.Errorf("Elements should count once, got %d", rec.Count("count"))
	}
}

func TestEager_BoundsChecked(t *testing.T) {
	ctx := context.Background()
	rec := mock.NewRecorder()
	rows := mock.Elements(rec, mock.Visible("a"), mock.Visible("b"))
	a := backend.Eager{}

	if !a.Recognize(rows) || !a.Recognize(rows[0]) || a.Recognize(42) {
		t.Fatal("Recognize mismatch")
	}

	if _, err := a.Nth(ctx, rows, 2); !errors.Is(err, core.ErrIndexOutOfBounds) {
		t.Errorf("Nth(2) error = %v, want ErrIndexOutOfBounds", err)
	}
	if _, err := a.Nth(ctx, rows, -1); !errors.Is(err, core.ErrIndexOutOfBounds) {
		t.Errorf("Nth(-1) error = %v, want ErrIndexOutOfBounds", err)
	}
	if _, err := a.Last(ctx, backend.ElementList{}); !errors.Is(err, core.ErrIndexOutOfBounds) {
		t.Errorf("Last(empty) error = %v", err)
	}

	last, err := a.Last(ctx, rows)
	if err != nil {
		t.Fatal(err)
	}
	if text, _ := a.Text(ctx, last); text != "b" {
		t.Errorf("Text(last) = %q", text)
	}

	// a single element counts as a one-element collection
	if n, _ := a.Count(ctx, rows[0]); n != 1 {
		t.Errorf("Count(element) = %d", n)
	}
	if first, err := a.First(ctx, rows[0]); err != nil || first != rows[0] {
		t.Errorf("First(element) = %v, %v", first, err)
	}
}

func TestEager_EmptyList(t *testing.T) {
	ctx := context.Background()
	a := backend.Eager{}
	empty := backend.ElementList{}

	if visible, err := a.IsVisible(ctx, empty); err != nil || visible {
		t.Errorf("IsVisible(empty) = %v, %v", visible, err)
	}
	if _, err := a.Text(ctx, empty); !errors.Is(err, core.ErrNoElements) {
		t.Errorf("Text(empty) error = %v, want ErrNoElements", err)
	}
	if err := a.WaitHidden(ctx, empty, time.Second); err != nil {
		t.Errorf("WaitHidden(empty) = %v", err)
	}
}

func TestAdapters_Queries(t *testing.T) {
	ctx := context.Background()
	rec := mock.NewRecorder()
	info := &mock.ElementInfo{
		Text: "Remember me", Value: "on", Visible: true, Enabled: false, Checked: true,
		Attributes: map[string]string{"role": "checkbox"},
	}

	tests := []struct {
		name    string
		adapter backend.Adapter
		target  backend.Target
	}{
		{"chained", backend.Chained{}, mock.NewLocator(rec, "remember", info)},
		{"eager", backend.Eager{}, mock.NewElement(rec, info)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, tg := tt.adapter, tt.target
			if v, err := a.IsVisible(ctx, tg); err != nil || !v {
				t.Errorf("IsVisible = %v, %v", v, err)
			}
			if v, err := a.IsEnabled(ctx, tg); err != nil || v {
				t.Errorf("IsEnabled = %v, %v", v, err)
			}
			if v, err := a.IsChecked(ctx, tg); err != nil || !v {
				t.Errorf("IsChecked = %v, %v", v, err)
			}
			if v, err := a.Text(ctx, tg); err != nil || v != "Remember me" {
				t.Errorf("Text = %q, %v", v, err)
			}
			if v, err := a.Value(ctx, tg); err != nil || v != "on" {
				t.Errorf("Value = %q, %v", v, err)
			}
			if v, err := a.Attribute(ctx, tg, "role"); err != nil || v != "checkbox" {
				t.Errorf("Attribute = %q, %v", v, err)
			}
			if err := a.WaitVisible(ctx, tg, time.Second); err != nil {
				t.Errorf("WaitVisible = %v", err)
			}
			if err := a.WaitHidden(ctx, tg, time.Second); err == nil {
				t.Error("WaitHidden on a visible element should time out")
			}
		})
	}
}

func TestAdapters_RejectForeignTargets(t *testing.T) {
	ctx := context.Background()
	rec := mock.NewRecorder()
	if _, err := (backend.Chained{}).Text(ctx, mock.NewElement(rec, mock.Visible("x"))); err == nil {
		t.Error("chained adapter accepted an eager element")
	}
	if _, err := (backend.Eager{}).Count(ctx, mock.NewLocator(rec, "x")); err == nil {
		t.Error("eager adapter accepted a locator")
	}
}
