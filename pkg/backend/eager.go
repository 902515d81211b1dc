package backend

import (
	"context"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/core"
)

// Eager adapts Element-shaped drivers. Collections are plain slices, so index
// navigation is bounds-checked and fails with core.ErrIndexOutOfBounds.
//
// A list used as a single target means its first element; an empty list is
// treated as an element that is not displayed.
type Eager struct{}

// Kind implements Adapter.
func (Eager) Kind() Kind { return KindEager }

// Recognize implements Adapter.
func (Eager) Recognize(v interface{}) bool {
	switch v.(type) {
	case Element, ElementList, []Element:
		return true
	}
	return false
}

func (e Eager) list(t Target) (ElementList, error) {
	switch v := t.(type) {
	case ElementList:
		return v, nil
	case []Element:
		return ElementList(v), nil
	case Element:
		return ElementList{v}, nil
	}
	return nil, unsupported(KindEager, t)
}

// element returns the single element t stands for, or nil for an empty list.
func (e Eager) element(t Target) (Element, error) {
	if el, ok := t.(Element); ok {
		return el, nil
	}
	l, err := e.list(t)
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		return nil, nil
	}
	return l[0], nil
}

func (e Eager) required(t Target) (Element, error) {
	el, err := e.element(t)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, core.ErrNoElements
	}
	return el, nil
}

// Count implements Adapter.
func (e Eager) Count(ctx context.Context, t Target) (int, error) {
	l, err := e.list(t)
	if err != nil {
		return 0, err
	}
	return len(l), nil
}

// First implements Adapter.
func (e Eager) First(ctx context.Context, t Target) (Target, error) {
	return e.Nth(ctx, t, 0)
}

// Last implements Adapter.
func (e Eager) Last(ctx context.Context, t Target) (Target, error) {
	l, err := e.list(t)
	if err != nil {
		return nil, err
	}
	return e.Nth(ctx, l, len(l)-1)
}

// Nth implements Adapter.
func (e Eager) Nth(ctx context.Context, t Target, i int) (Target, error) {
	l, err := e.list(t)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(l) {
		return nil, core.ErrIndexOutOfBounds.
			WithMessagef("index %d out of bounds for %d element(s)", i, len(l)).
			WithDetails(map[string]interface{}{"index": i, "count": len(l)})
	}
	return l[i], nil
}

// Elements implements Adapter.
func (e Eager) Elements(ctx context.Context, t Target) ([]Target, error) {
	l, err := e.list(t)
	if err != nil {
		return nil, err
	}
	out := make([]Target, len(l))
	for i, el := range l {
		out[i] = el
	}
	return out, nil
}

// IsVisible implements Adapter.
func (e Eager) IsVisible(ctx context.Context, t Target) (bool, error) {
	el, err := e.element(t)
	if err != nil || el == nil {
		return false, err
	}
	return el.IsDisplayed(ctx)
}

// IsEnabled implements Adapter.
func (e Eager) IsEnabled(ctx context.Context, t Target) (bool, error) {
	el, err := e.element(t)
	if err != nil || el == nil {
		return false, err
	}
	return el.IsEnabled(ctx)
}

// IsChecked implements Adapter.
func (e Eager) IsChecked(ctx context.Context, t Target) (bool, error) {
	el, err := e.element(t)
	if err != nil || el == nil {
		return false, err
	}
	return el.IsSelected(ctx)
}

// Text implements Adapter.
func (e Eager) Text(ctx context.Context, t Target) (string, error) {
	el, err := e.required(t)
	if err != nil {
		return "", err
	}
	return el.GetText(ctx)
}

// Value implements Adapter.
func (e Eager) Value(ctx context.Context, t Target) (string, error) {
	el, err := e.required(t)
	if err != nil {
		return "", err
	}
	return el.GetValue(ctx)
}

// Attribute implements Adapter.
func (e Eager) Attribute(ctx context.Context, t Target, name string) (string, error) {
	el, err := e.required(t)
	if err != nil {
		return "", err
	}
	return el.GetAttribute(ctx, name)
}

// WaitVisible implements Adapter.
func (e Eager) WaitVisible(ctx context.Context, t Target, timeout time.Duration) error {
	el, err := e.required(t)
	if err != nil {
		return err
	}
	return el.WaitForDisplayed(ctx, timeout, false)
}

// WaitHidden implements Adapter. An empty list is already hidden.
func (e Eager) WaitHidden(ctx context.Context, t Target, timeout time.Duration) error {
	el, err := e.element(t)
	if err != nil || el == nil {
		return err
	}
	return el.WaitForDisplayed(ctx, timeout, true)
}
