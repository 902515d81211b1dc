// Package mock provides in-memory drivers of both shapes for testing without
// a real browser or device.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
)

// ElementInfo is the state of one fake element.
type ElementInfo struct {
	ID         string            `yaml:"id" json:"id,omitempty"`
	Text       string            `yaml:"text" json:"text,omitempty"`
	Value      string            `yaml:"value" json:"value,omitempty"`
	Visible    bool              `yaml:"visible" json:"visible"`
	Enabled    bool              `yaml:"enabled" json:"enabled"`
	Checked    bool              `yaml:"checked" json:"checked,omitempty"`
	Attributes map[string]string `yaml:"attributes" json:"attributes,omitempty"`
}

// Visible returns a visible, enabled element with the given text.
func Visible(text string) *ElementInfo {
	return &ElementInfo{Text: text, Visible: true, Enabled: true}
}

// Hidden returns a hidden element with the given text.
func Hidden(text string) *ElementInfo {
	return &ElementInfo{Text: text, Enabled: true}
}

// Recorder counts driver calls and injects failures. One recorder is shared by
// every fake built from it.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
	calls  []string
	// FailOn makes an operation ("isVisible", "getText", ...) return the error.
	FailOn map[string]error
	// Delay is added to every call.
	Delay time.Duration
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int), FailOn: make(map[string]error)}
}

func (r *Recorder) record(ctx context.Context, op, id string) error {
	if r == nil {
		return ctx.Err()
	}
	r.mu.Lock()
	r.counts[op]++
	r.calls = append(r.calls, op+":"+id)
	err := r.FailOn[op]
	delay := r.Delay
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Count returns how many times op ran.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[op]
}

// Calls returns every call as "op:elementID", in order.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Reset clears counters and recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
	r.calls = nil
}

// Locator is a fake chained locator over a fixed set of elements.
type Locator struct {
	name  string
	elems []*ElementInfo
	index int
	whole bool // addresses every element, index unused
	rec   *Recorder
}

// NewLocator creates a locator named name over elems.
func NewLocator(rec *Recorder, name string, elems ...*ElementInfo) *Locator {
	return &Locator{name: name, elems: elems, whole: true, rec: rec}
}

func (l *Locator) narrow(i int) *Locator {
	return &Locator{name: l.name, elems: l.elems, index: i, rec: l.rec}
}

func (l *Locator) id() string {
	if l.whole {
		return l.name
	}
	return fmt.Sprintf("%s[%d]", l.name, l.index)
}

// resolve returns the single element the locator addresses. A whole-set
// locator must match exactly one element.
func (l *Locator) resolve() (*ElementInfo, error) {
	if l.whole {
		switch len(l.elems) {
		case 0:
			return nil, nil
		case 1:
			return l.elems[0], nil
		default:
			return nil, fmt.Errorf("strict mode violation: %s resolved to %d elements", l.name, len(l.elems))
		}
	}
	if l.index < 0 || l.index >= len(l.elems) {
		return nil, nil
	}
	return l.elems[l.index], nil
}

func (l *Locator) mustResolve() (*ElementInfo, error) {
	el, err := l.resolve()
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, fmt.Errorf("timeout waiting for %s", l.id())
	}
	return el, nil
}

// Count implements backend.Locator.
func (l *Locator) Count(ctx context.Context) (int, error) {
	if err := l.rec.record(ctx, "count", l.id()); err != nil {
		return 0, err
	}
	if l.whole {
		return len(l.elems), nil
	}
	if l.index >= 0 && l.index < len(l.elems) {
		return 1, nil
	}
	return 0, nil
}

// First implements backend.Locator.
func (l *Locator) First() backend.Locator { return l.narrow(0) }

// Last implements backend.Locator.
func (l *Locator) Last() backend.Locator { return l.narrow(len(l.elems) - 1) }

// Nth implements backend.Locator.
func (l *Locator) Nth(i int) backend.Locator { return l.narrow(i) }

// IsVisible implements backend.Locator.
func (l *Locator) IsVisible(ctx context.Context) (bool, error) {
	if err := l.rec.record(ctx, "isVisible", l.id()); err != nil {
		return false, err
	}
	el, err := l.resolve()
	if err != nil || el == nil {
		return false, err
	}
	return el.Visible, nil
}

// IsEnabled implements backend.Locator.
func (l *Locator) IsEnabled(ctx context.Context) (bool, error) {
	if err := l.rec.record(ctx, "isEnabled", l.id()); err != nil {
		return false, err
	}
	el, err := l.mustResolve()
	if err != nil {
		return false, err
	}
	return el.Enabled, nil
}

// IsChecked implements backend.Locator.
func (l *Locator) IsChecked(ctx context.Context) (bool, error) {
	if err := l.rec.record(ctx, "isChecked", l.id()); err != nil {
		return false, err
	}
	el, err := l.mustResolve()
	if err != nil {
		return false, err
	}
	return el.Checked, nil
}

// TextContent implements backend.Locator.
func (l *Locator) TextContent(ctx context.Context) (string, error) {
	if err := l.rec.record(ctx, "getText", l.id()); err != nil {
		return "", err
	}
	el, err := l.mustResolve()
	if err != nil {
		return "", err
	}
	return el.Text, nil
}

// InputValue implements backend.Locator.
func (l *Locator) InputValue(ctx context.Context) (string, error) {
	if err := l.rec.record(ctx, "getValue", l.id()); err != nil {
		return "", err
	}
	el, err := l.mustResolve()
	if err != nil {
		return "", err
	}
	return el.Value, nil
}

// GetAttribute implements backend.Locator.
func (l *Locator) GetAttribute(ctx context.Context, name string) (string, error) {
	if err := l.rec.record(ctx, "getAttribute", l.id()); err != nil {
		return "", err
	}
	el, err := l.mustResolve()
	if err != nil {
		return "", err
	}
	return el.Attributes[name], nil
}

// WaitFor implements backend.Locator. The fake never blocks: the state either
// holds now or the wait times out.
func (l *Locator) WaitFor(ctx context.Context, state string, timeout time.Duration) error {
	if err := l.rec.record(ctx, "waitFor:"+state, l.id()); err != nil {
		return err
	}
	el, err := l.resolve()
	if err != nil {
		return err
	}
	visible := el != nil && el.Visible
	if (state == backend.StateVisible) != visible {
		return fmt.Errorf("timeout %s waiting for %s to be %s", timeout, l.id(), state)
	}
	return nil
}

// Element is a fake eager element.
type Element struct {
	info *ElementInfo
	rec  *Recorder
}

// NewElement wraps info.
func NewElement(rec *Recorder, info *ElementInfo) *Element {
	return &Element{info: info, rec: rec}
}

// Elements wraps infos as an eagerly fetched list.
func Elements(rec *Recorder, infos ...*ElementInfo) backend.ElementList {
	list := make(backend.ElementList, len(infos))
	for i, info := range infos {
		list[i] = NewElement(rec, info)
	}
	return list
}

func (e *Element) id() string {
	if e.info.ID != "" {
		return e.info.ID
	}
	return e.info.Text
}

// IsDisplayed implements backend.Element.
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if err := e.rec.record(ctx, "isVisible", e.id()); err != nil {
		return false, err
	}
	return e.info.Visible, nil
}

// IsEnabled implements backend.Element.
func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	if err := e.rec.record(ctx, "isEnabled", e.id()); err != nil {
		return false, err
	}
	return e.info.Enabled, nil
}

// IsSelected implements backend.Element.
func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	if err := e.rec.record(ctx, "isChecked", e.id()); err != nil {
		return false, err
	}
	return e.info.Checked, nil
}

// GetText implements backend.Element.
func (e *Element) GetText(ctx context.Context) (string, error) {
	if err := e.rec.record(ctx, "getText", e.id()); err != nil {
		return "", err
	}
	return e.info.Text, nil
}

// GetValue implements backend.Element.
func (e *Element) GetValue(ctx context.Context) (string, error) {
	if err := e.rec.record(ctx, "getValue", e.id()); err != nil {
		return "", err
	}
	return e.info.Value, nil
}

// GetAttribute implements backend.Element.
func (e *Element) GetAttribute(ctx context.Context, name string) (string, error) {
	if err := e.rec.record(ctx, "getAttribute", e.id()); err != nil {
		return "", err
	}
	return e.info.Attributes[name], nil
}

// WaitForDisplayed implements backend.Element.
func (e *Element) WaitForDisplayed(ctx context.Context, timeout time.Duration, reverse bool) error {
	state := backend.StateVisible
	if reverse {
		state = backend.StateHidden
	}
	if err := e.rec.record(ctx, "waitFor:"+state, e.id()); err != nil {
		return err
	}
	if e.info.Visible == reverse {
		return fmt.Errorf("element %s still not %s after %s", e.id(), state, timeout)
	}
	return nil
}

// Page is the fake chained page. Its presence as the `page` member marks a
// screen as chained.
type Page struct {
	URL      string
	Title    string
	rec      *Recorder
	locators map[string]*Locator
}

// NewPage creates a page serving the given locators by selector.
func NewPage(rec *Recorder, locators map[string]*Locator) *Page {
	if locators == nil {
		locators = make(map[string]*Locator)
	}
	return &Page{rec: rec, locators: locators, URL: "about:blank"}
}

// Locator returns the locator registered for selector, or an empty one.
func (p *Page) Locator(selector string) backend.Locator {
	if l, ok := p.locators[selector]; ok {
		return l
	}
	return NewLocator(p.rec, selector)
}
