package backend

import (
	"context"
	"time"
)

// Locator is the chained driver shape: a lazy query that is narrowed by
// composition (First, Last, Nth) and only touches the UI when a query method
// runs. Nth does not check bounds; out-of-range elements surface when queried.
type Locator interface {
	Count(ctx context.Context) (int, error)
	First() Locator
	Last() Locator
	Nth(i int) Locator

	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsChecked(ctx context.Context) (bool, error)
	TextContent(ctx context.Context) (string, error)
	InputValue(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, error)

	// WaitFor waits until the locator reaches state ("visible", "hidden").
	WaitFor(ctx context.Context, state string, timeout time.Duration) error
}

// Element is the eager driver shape: a handle to one already-fetched element.
type Element interface {
	IsDisplayed(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	GetText(ctx context.Context) (string, error)
	GetValue(ctx context.Context) (string, error)
	GetAttribute(ctx context.Context, name string) (string, error)

	// WaitForDisplayed waits until the element is displayed, or no longer
	// displayed when reverse is set.
	WaitForDisplayed(ctx context.Context, timeout time.Duration, reverse bool) error
}

// ElementList is an eagerly fetched collection of elements.
type ElementList []Element

// Wait states understood by Locator.WaitFor.
const (
	StateVisible = "visible"
	StateHidden  = "hidden"
)
