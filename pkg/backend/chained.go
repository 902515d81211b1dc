package backend

import (
	"context"
	"time"
)

// Chained adapts Locator-shaped drivers. Index navigation is delegated to the
// driver and never bounds-checked here.
type Chained struct{}

// Kind implements Adapter.
func (Chained) Kind() Kind { return KindChained }

// Recognize implements Adapter.
func (Chained) Recognize(v interface{}) bool {
	_, ok := v.(Locator)
	return ok
}

func (c Chained) locator(t Target) (Locator, error) {
	l, ok := t.(Locator)
	if !ok {
		return nil, unsupported(KindChained, t)
	}
	return l, nil
}

// Count implements Adapter.
func (c Chained) Count(ctx context.Context, t Target) (int, error) {
	l, err := c.locator(t)
	if err != nil {
		return 0, err
	}
	return l.Count(ctx)
}

// First implements Adapter.
func (c Chained) First(ctx context.Context, t Target) (Target, error) {
	l, err := c.locator(t)
	if err != nil {
		return nil, err
	}
	return l.First(), nil
}

// Last implements Adapter.
func (c Chained) Last(ctx context.Context, t Target) (Target, error) {
	l, err := c.locator(t)
	if err != nil {
		return nil, err
	}
	return l.Last(), nil
}

// Nth implements Adapter.
func (c Chained) Nth(ctx context.Context, t Target, i int) (Target, error) {
	l, err := c.locator(t)
	if err != nil {
		return nil, err
	}
	return l.Nth(i), nil
}

// Elements implements Adapter by counting once and narrowing per index.
func (c Chained) Elements(ctx context.Context, t Target) ([]Target, error) {
	l, err := c.locator(t)
	if err != nil {
		return nil, err
	}
	n, err := l.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Target, n)
	for i := range out {
		out[i] = l.Nth(i)
	}
	return out, nil
}

// IsVisible implements Adapter.
func (c Chained) IsVisible(ctx context.Context, t Target) (bool, error) {
	l, err := c.locator(t)
	if err != nil {
		return false, err
	}
	return l.IsVisible(ctx)
}

// IsEnabled implements Adapter.
func (c Chained) IsEnabled(ctx context.Context, t Target) (bool, error) {
	l, err := c.locator(t)
	if err != nil {
		return false, err
	}
	return l.IsEnabled(ctx)
}

// IsChecked implements Adapter.
func (c Chained) IsChecked(ctx context.Context, t Target) (bool, error) {
	l, err := c.locator(t)
	if err != nil {
		return false, err
	}
	return l.IsChecked(ctx)
}

// Text implements Adapter.
func (c Chained) Text(ctx context.Context, t Target) (string, error) {
	l, err := c.locator(t)
	if err != nil {
		return "", err
	}
	return l.TextContent(ctx)
}

// Value implements Adapter.
func (c Chained) Value(ctx context.Context, t Target) (string, error) {
	l, err := c.locator(t)
	if err != nil {
		return "", err
	}
	return l.InputValue(ctx)
}

// Attribute implements Adapter.
func (c Chained) Attribute(ctx context.Context, t Target, name string) (string, error) {
	l, err := c.locator(t)
	if err != nil {
		return "", err
	}
	return l.GetAttribute(ctx, name)
}

// WaitVisible implements Adapter.
func (c Chained) WaitVisible(ctx context.Context, t Target, timeout time.Duration) error {
	l, err := c.locator(t)
	if err != nil {
		return err
	}
	return l.WaitFor(ctx, StateVisible, timeout)
}

// WaitHidden implements Adapter.
func (c Chained) WaitHidden(ctx context.Context, t Target, timeout time.Duration) error {
	l, err := c.locator(t)
	if err != nil {
		return err
	}
	return l.WaitFor(ctx, StateHidden, timeout)
}
