package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/expect"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// CustomFunc is Go code registered for a custom-code block.
type CustomFunc func(ctx context.Context, env *CustomEnv) error

// CustomEnv is everything a custom function can use.
type CustomEnv struct {
	// Driver is the raw driver handle (the page of a chained screen).
	Driver   interface{}
	Screen   screen.Screen
	TestData map[string]interface{}
	Vars     *vars.Store
	// Expect starts a value expectation.
	Expect func(actual interface{}) *expect.Expectation
	// Interpreter is the interpreter running the block.
	Interpreter *Interpreter

	run *run
}

// Check evaluates one assertion the way ui-assertion blocks do.
func (e *CustomEnv) Check(ctx context.Context, a check.Assertion) (interface{}, error) {
	return e.run.eval.Evaluate(ctx, e.Screen, a, e.TestData)
}

// Element starts a UI expectation on the resolved selector.
func (e *CustomEnv) Element(ctx context.Context, sel string) (*expect.ElementExpectation, error) {
	res, err := e.run.eval.Subject(ctx, e.Screen, check.Assertion{Type: check.TypeLocator, Fn: sel}, nil, e.TestData)
	if err != nil {
		return nil, err
	}
	t, err := res.At(ctx, 0)
	if err != nil {
		return nil, err
	}
	return expect.Element(ctx, e.run.adapter, t).Named(res.Describe()), nil
}

// Registry maps custom-code keys to functions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]CustomFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]CustomFunc)}
}

// Register adds fn under key. Keys are unique.
func (r *Registry) Register(key string, fn CustomFunc) error {
	if key == "" || fn == nil {
		return fmt.Errorf("register custom code: key and function are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[key]; exists {
		return fmt.Errorf("custom code %q already registered", key)
	}
	r.funcs[key] = fn
	return nil
}

// Lookup returns the function registered under key.
func (r *Registry) Lookup(key string) (CustomFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[key]
	return fn, ok
}

// Keys lists registered keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
