// Package backend normalizes the two UI driver shapes behind one capability
// interface. Nothing outside this package touches Locator or Element methods
// directly; resolution and checks go through an Adapter.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
)

// Kind identifies a driver shape.
type Kind int

const (
	KindAuto    Kind = iota // detect from the screen
	KindChained             // lazy composable locators
	KindEager               // eagerly fetched elements
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindChained:
		return "chained"
	case KindEager:
		return "eager"
	default:
		return "unknown"
	}
}

// ParseKind parses a configured backend name. Driver family names are
// accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, nil
	case "chained", "playwright":
		return KindChained, nil
	case "eager", "webdriverio", "wdio":
		return KindEager, nil
	default:
		return KindAuto, fmt.Errorf("unknown backend %q (want auto, chained or eager)", s)
	}
}

// Target is one adapter-specific element reference: a Locator for the
// chained backend, an Element or ElementList for the eager one.
type Target interface{}

// Adapter is the capability set the interpreter needs from a backend.
type Adapter interface {
	Kind() Kind

	// Recognize reports whether v is a locator or element of this backend.
	Recognize(v interface{}) bool

	Count(ctx context.Context, t Target) (int, error)
	First(ctx context.Context, t Target) (Target, error)
	Last(ctx context.Context, t Target) (Target, error)
	Nth(ctx context.Context, t Target, i int) (Target, error)
	Elements(ctx context.Context, t Target) ([]Target, error)

	IsVisible(ctx context.Context, t Target) (bool, error)
	IsEnabled(ctx context.Context, t Target) (bool, error)
	IsChecked(ctx context.Context, t Target) (bool, error)
	Text(ctx context.Context, t Target) (string, error)
	Value(ctx context.Context, t Target) (string, error)
	Attribute(ctx context.Context, t Target, name string) (string, error)

	WaitVisible(ctx context.Context, t Target, timeout time.Duration) error
	WaitHidden(ctx context.Context, t Target, timeout time.Duration) error
}

// MarkerMember is the screen member whose presence marks a chained screen.
const MarkerMember = "page"

// Detect picks the backend for scr: a screen exposing a page member is
// chained, anything else is eager.
func Detect(scr screen.Screen) Kind {
	if screen.Has(scr, MarkerMember) {
		return KindChained
	}
	return KindEager
}

// For returns the adapter for kind, detecting from scr when kind is KindAuto.
func For(kind Kind, scr screen.Screen) Adapter {
	if kind == KindAuto {
		kind = Detect(scr)
		logger.Debug("detected %s backend", kind)
	}
	if kind == KindChained {
		return Chained{}
	}
	return Eager{}
}

func unsupported(k Kind, t Target) error {
	return fmt.Errorf("%s backend: unsupported target %T", k, t)
}
