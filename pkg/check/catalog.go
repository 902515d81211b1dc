// Package check evaluates single named checks (isVisible, getText,
// toBeGreaterThan, ...) against a screen and applies the error policy of the
// check's category.
package check

import "sort"

// Category decides the error policy of a check.
type Category int

const (
	// Getter produces a value. Errors always propagate.
	Getter Category = iota + 1
	// BooleanCheck produces true or false. A failure with a store target is
	// recorded as false and does not propagate.
	BooleanCheck
	// HardAssertion runs a matcher. A failed match always propagates.
	HardAssertion
)

func (c Category) String() string {
	switch c {
	case Getter:
		return "getter"
	case BooleanCheck:
		return "boolean"
	case HardAssertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// Check names.
const (
	GetValue     = "getValue"
	GetText      = "getText"
	GetCount     = "getCount"
	GetAttribute = "getAttribute"

	IsVisible = "isVisible"
	IsHidden  = "isHidden"
	IsEnabled = "isEnabled"
	IsChecked = "isChecked"
	HasText   = "hasText"

	ToBe                   = "toBe"
	ToEqual                = "toEqual"
	ToContain              = "toContain"
	ToMatch                = "toMatch"
	ToBeGreaterThan        = "toBeGreaterThan"
	ToBeGreaterThanOrEqual = "toBeGreaterThanOrEqual"
	ToBeLessThan           = "toBeLessThan"
	ToBeLessThanOrEqual    = "toBeLessThanOrEqual"
	ToBeTruthy             = "toBeTruthy"
	ToBeFalsy              = "toBeFalsy"
	ToBeNull               = "toBeNull"
	ToBeDefined            = "toBeDefined"
	ToHaveLength           = "toHaveLength"

	ToBeVisible     = "toBeVisible"
	ToBeHidden      = "toBeHidden"
	ToBeEnabled     = "toBeEnabled"
	ToBeDisabled    = "toBeDisabled"
	ToBeChecked     = "toBeChecked"
	ToHaveText      = "toHaveText"
	ToContainText   = "toContainText"
	ToHaveValue     = "toHaveValue"
	ToHaveCount     = "toHaveCount"
	ToHaveAttribute = "toHaveAttribute"
)

type entry struct {
	category Category
	// ui marks matchers that need a locator subject.
	ui bool
}

var catalog = map[string]entry{
	GetValue:     {Getter, false},
	GetText:      {Getter, false},
	GetCount:     {Getter, false},
	GetAttribute: {Getter, false},

	IsVisible: {BooleanCheck, false},
	IsHidden:  {BooleanCheck, false},
	IsEnabled: {BooleanCheck, false},
	IsChecked: {BooleanCheck, false},
	HasText:   {BooleanCheck, false},

	ToBe:                   {HardAssertion, false},
	ToEqual:                {HardAssertion, false},
	ToContain:              {HardAssertion, false},
	ToMatch:                {HardAssertion, false},
	ToBeGreaterThan:        {HardAssertion, false},
	ToBeGreaterThanOrEqual: {HardAssertion, false},
	ToBeLessThan:           {HardAssertion, false},
	ToBeLessThanOrEqual:    {HardAssertion, false},
	ToBeTruthy:             {HardAssertion, false},
	ToBeFalsy:              {HardAssertion, false},
	ToBeNull:               {HardAssertion, false},
	ToBeDefined:            {HardAssertion, false},
	ToHaveLength:           {HardAssertion, false},

	ToBeVisible:     {HardAssertion, true},
	ToBeHidden:      {HardAssertion, true},
	ToBeEnabled:     {HardAssertion, true},
	ToBeDisabled:    {HardAssertion, true},
	ToBeChecked:     {HardAssertion, true},
	ToHaveText:      {HardAssertion, true},
	ToContainText:   {HardAssertion, true},
	ToHaveValue:     {HardAssertion, true},
	ToHaveCount:     {HardAssertion, true},
	ToHaveAttribute: {HardAssertion, true},
}

// Lookup returns the category of the named check.
func Lookup(name string) (Category, bool) {
	e, ok := catalog[name]
	return e.category, ok
}

// IsUI reports whether the named check needs a locator.
func IsUI(name string) bool {
	return catalog[name].ui
}

// Names lists every known check, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
