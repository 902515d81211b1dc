// Package expectation handles parsing and representation of expectation
// documents: per-screen lists of ordered blocks, or the flat legacy form.
package expectation

import (
	"github.com/devicelab-dev/screen-expect/pkg/check"
)

// BlockType identifies the handler for a block.
type BlockType string

const (
	BlockUIAssertion   BlockType = "ui-assertion"
	BlockCustomCode    BlockType = "custom-code"
	BlockFunctionCall  BlockType = "function-call"
	BlockDataAssertion BlockType = "data-assertion"
)

// IsKnown reports whether a handler exists for t.
func (t BlockType) IsKnown() bool {
	switch t {
	case BlockUIAssertion, BlockCustomCode, BlockFunctionCall, BlockDataAssertion:
		return true
	}
	return false
}

// Assertion is a single check request.
type Assertion = check.Assertion

// Document is a parsed expectation document.
type Document struct {
	SourcePath string  `yaml:"-" json:"-"`
	Screen     string  `yaml:"screen,omitempty" json:"screen,omitempty"`
	Blocks     []Block `yaml:"blocks,omitempty" json:"blocks,omitempty"`

	Legacy `yaml:",inline"`
}

// Name identifies the document in logs and reports: the screen name, else
// the source path.
func (d *Document) Name() string {
	switch {
	case d.Screen != "":
		return d.Screen
	case d.SourcePath != "":
		return d.SourcePath
	default:
		return "document"
	}
}

// IsLegacy reports whether the document uses the flat legacy form. A
// document is legacy iff it has no blocks.
func (d *Document) IsLegacy() bool {
	return len(d.Blocks) == 0
}

// Legacy holds the flat document form.
type Legacy struct {
	Visible       []string       `yaml:"visible,omitempty" json:"visible,omitempty"`
	Hidden        []string       `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Truthy        []string       `yaml:"truthy,omitempty" json:"truthy,omitempty"`
	Falsy         []string       `yaml:"falsy,omitempty" json:"falsy,omitempty"`
	Assertions    []Assertion    `yaml:"assertions,omitempty" json:"assertions,omitempty"`
	Checks        Checks         `yaml:"checks,omitempty" json:"checks,omitempty"`
	Functions     Functions      `yaml:"functions,omitempty" json:"functions,omitempty"`
	Prerequisites []FunctionCall `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	// Expect names a registered custom function run last.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Block is one ordered, typed step of a document.
type Block struct {
	ID      string    `yaml:"id,omitempty" json:"id,omitempty"`
	Type    BlockType `yaml:"type" json:"type"`
	Label   string    `yaml:"label,omitempty" json:"label,omitempty"`
	Order   float64   `yaml:"order" json:"order"`
	Enabled *bool     `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// UI is set for ui-assertion blocks.
	UI *UIData `yaml:"-" json:"-"`
	// Call is set for function-call blocks.
	Call *FunctionCall `yaml:"-" json:"-"`
	// Code is the registry key of a custom-code block. Empty means ID.
	Code string `yaml:"code,omitempty" json:"code,omitempty"`
	// Script is a JavaScript function body used when no registered function
	// matches and scripting is enabled.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`
	// Assertions holds the comparisons of a data-assertion block.
	Assertions []DataAssertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`

	// Line is the source line of the block, when parsed from a file.
	Line int `yaml:"-" json:"-"`
}

// IsEnabled reports whether the block runs. Omitted means enabled.
func (b *Block) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// CodeKey returns the registry key of a custom-code block.
func (b *Block) CodeKey() string {
	if b.Code != "" {
		return b.Code
	}
	return b.ID
}

// Describe returns the label used in failure messages.
func (b *Block) Describe() string {
	switch {
	case b.Label != "":
		return b.Label
	case b.ID != "":
		return b.ID
	default:
		return string(b.Type)
	}
}

// UIData is the payload of a ui-assertion block.
type UIData struct {
	Visible    []string    `yaml:"visible,omitempty" json:"visible,omitempty"`
	Hidden     []string    `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Checks     Checks      `yaml:"checks,omitempty" json:"checks,omitempty"`
	Truthy     []string    `yaml:"truthy,omitempty" json:"truthy,omitempty"`
	Falsy      []string    `yaml:"falsy,omitempty" json:"falsy,omitempty"`
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Checks is the `checks` object. Text and Contains keep declaration order.
type Checks struct {
	Visible  []string   `yaml:"visible,omitempty" json:"visible,omitempty"`
	Hidden   []string   `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Text     TextChecks `yaml:"text,omitempty" json:"text,omitempty"`
	Contains TextChecks `yaml:"contains,omitempty" json:"contains,omitempty"`
}

// TextCheck pairs a selector with expected text.
type TextCheck struct {
	Field string
	Value interface{}
}

// TextChecks is an ordered selector → text mapping.
type TextChecks []TextCheck

// FunctionCall invokes a screen method. It is the payload of function-call
// blocks and the form of a prerequisite.
type FunctionCall struct {
	Instance       string        `yaml:"instance,omitempty" json:"instance,omitempty"`
	Method         string        `yaml:"method" json:"method"`
	Args           []interface{} `yaml:"args,omitempty" json:"args,omitempty"`
	Await          *bool         `yaml:"await,omitempty" json:"await,omitempty"`
	StoreAs        string        `yaml:"storeAs,omitempty" json:"storeAs,omitempty"`
	PersistStoreAs string        `yaml:"persistStoreAs,omitempty" json:"persistStoreAs,omitempty"`
}

// Awaits reports whether errors returned by the method fail the call.
// Omitted means true.
func (f *FunctionCall) Awaits() bool {
	return f.Await == nil || *f.Await
}

// FunctionSpec is one entry of the legacy `functions` mapping: a method,
// its arguments and an optional check of the result.
type FunctionSpec struct {
	Method         string        `yaml:"-" json:"method"`
	Args           []interface{} `yaml:"args,omitempty" json:"args,omitempty"`
	Expect         string        `yaml:"expect,omitempty" json:"expect,omitempty"`
	Value          interface{}   `yaml:"value,omitempty" json:"value,omitempty"`
	StoreAs        string        `yaml:"storeAs,omitempty" json:"storeAs,omitempty"`
	PersistStoreAs string        `yaml:"persistStoreAs,omitempty" json:"persistStoreAs,omitempty"`
}

// Functions is the ordered legacy `functions` mapping.
type Functions []FunctionSpec

// DataAssertion compares two resolved values.
type DataAssertion struct {
	Left     interface{} `yaml:"left" json:"left"`
	Operator string      `yaml:"operator" json:"operator"`
	Right    interface{} `yaml:"right,omitempty" json:"right,omitempty"`
	Message  string      `yaml:"message,omitempty" json:"message,omitempty"`
}
