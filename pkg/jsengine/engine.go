// Package jsengine runs script-bodied custom-code blocks in a goja sandbox.
// Scripts only see the bindings handed to New.
package jsengine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	json "github.com/goccy/go-json"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/expect"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// CheckFunc evaluates one assertion on behalf of a script.
type CheckFunc func(ctx context.Context, a check.Assertion) (interface{}, error)

// Bindings are the values a script can reach.
type Bindings struct {
	Screen   screen.Screen
	Driver   interface{}
	TestData map[string]interface{}
	Vars     *vars.Store
	Check    CheckFunc
}

// Engine wraps a goja runtime set up with Bindings.
type Engine struct {
	runtime  *goja.Runtime
	bindings Bindings
	ctx      context.Context
	mu       sync.Mutex
}

// New creates an engine. Every custom-code block gets its own engine.
func New(b Bindings) *Engine {
	e := &Engine{
		runtime:  goja.New(),
		bindings: b,
		ctx:      context.Background(),
	}
	e.runtime.SetFieldNameMapper(goja.UncapFieldNameMapper())
	e.setupBuiltins()
	return e
}

// setupBuiltins registers the global objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()

	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("expect", e.expectFunc)

	if e.bindings.TestData != nil {
		e.runtime.Set("testData", e.bindings.TestData)
	} else {
		e.runtime.Set("testData", e.runtime.NewObject())
	}
	if e.bindings.Vars != nil {
		e.runtime.Set("vars", e.varsObject())
	}
	if e.bindings.Screen != nil {
		e.runtime.Set("screen", e.screenObject())
	}
	if e.bindings.Driver != nil {
		e.runtime.Set("driver", e.bindings.Driver)
	}
	if e.bindings.Check != nil {
		e.runtime.Set("check", e.checkFunc)
	}
}

// setupConsole routes console output to the log file.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(log func(string, ...interface{})) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log("script: %s", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(logger.Info))
	console.Set("info", makeConsoleFunc(logger.Info))
	console.Set("debug", makeConsoleFunc(logger.Debug))
	console.Set("warn", makeConsoleFunc(logger.Warn))
	console.Set("error", makeConsoleFunc(logger.Error))
	e.runtime.Set("console", console)
}

// throw raises err as a JS exception.
func (e *Engine) throw(err error) {
	if err != nil {
		panic(e.runtime.NewGoError(err))
	}
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}
		var v interface{}
		if err := json.Unmarshal([]byte(call.Arguments[0].String()), &v); err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return e.runtime.ToValue(v)
	}
}

func (e *Engine) varsObject() *goja.Object {
	store := e.bindings.Vars
	obj := e.runtime.NewObject()
	obj.Set("get", func(key string) interface{} {
		v, _ := store.Get(key)
		return v
	})
	obj.Set("has", store.Has)
	obj.Set("set", func(key string, value interface{}) {
		e.throw(store.Store(key, value))
	})
	obj.Set("persist", func(key string, value interface{}) {
		e.throw(store.Store(key, value, vars.PersistTo(e.bindings.TestData)))
	})
	obj.Set("dump", store.Dump)
	return obj
}

func (e *Engine) screenObject() *goja.Object {
	scr := e.bindings.Screen
	obj := e.runtime.NewObject()
	obj.Set("has", func(name string) bool {
		return screen.Has(scr, name)
	})
	obj.Set("fields", scr.Names)
	obj.Set("get", func(name string) interface{} {
		m, ok := scr.Lookup(name)
		if !ok {
			e.throw(fmt.Errorf("screen has no member %q", name))
		}
		return m.Value()
	})
	obj.Set("call", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		m, ok := scr.Lookup(name)
		if !ok {
			e.throw(fmt.Errorf("screen has no member %q", name))
		}
		args := make([]interface{}, 0, len(call.Arguments))
		for _, a := range call.Arguments[1:] {
			args = append(args, a.Export())
		}
		out, err := m.Call(e.ctx, args...)
		e.throw(err)
		return e.runtime.ToValue(out)
	})
	return obj
}

func (e *Engine) checkFunc(call goja.FunctionCall) goja.Value {
	raw, err := json.Marshal(call.Argument(0).Export())
	e.throw(err)
	var a check.Assertion
	if err := json.Unmarshal(raw, &a); err != nil {
		e.throw(fmt.Errorf("invalid assertion: %w", err))
	}
	out, err := e.bindings.Check(e.ctx, a)
	e.throw(err)
	return e.runtime.ToValue(out)
}

func (e *Engine) expectFunc(call goja.FunctionCall) goja.Value {
	x := expect.That(call.Argument(0).Export())
	if len(call.Arguments) > 1 {
		x = x.As(call.Argument(1).String())
	}
	return e.matchers(x, false)
}

func (e *Engine) matchers(x *expect.Expectation, negated bool) *goja.Object {
	obj := e.runtime.NewObject()
	unary := func(m func() error) func() {
		return func() { e.throw(m()) }
	}
	binary := func(m func(interface{}) error) func(goja.Value) {
		return func(v goja.Value) { e.throw(m(v.Export())) }
	}

	obj.Set("toBe", binary(x.ToBe))
	obj.Set("toEqual", binary(x.ToEqual))
	obj.Set("toContain", binary(x.ToContain))
	obj.Set("toMatch", func(pattern string) { e.throw(x.ToMatch(pattern)) })
	obj.Set("toBeGreaterThan", binary(x.ToBeGreaterThan))
	obj.Set("toBeGreaterThanOrEqual", binary(x.ToBeGreaterThanOrEqual))
	obj.Set("toBeLessThan", binary(x.ToBeLessThan))
	obj.Set("toBeLessThanOrEqual", binary(x.ToBeLessThanOrEqual))
	obj.Set("toHaveLength", binary(x.ToHaveLength))
	obj.Set("toBeTruthy", unary(x.ToBeTruthy))
	obj.Set("toBeFalsy", unary(x.ToBeFalsy))
	obj.Set("toBeNull", unary(x.ToBeNull))
	obj.Set("toBeDefined", unary(x.ToBeDefined))
	if !negated {
		obj.Set("not", e.matchers(x.Not(), true))
	}
	return obj
}

// Run executes body as the body of an async function and returns what it
// returns. Cancelling ctx interrupts the script.
func (e *Engine) Run(ctx context.Context, body string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ctx = ctx
	stop := context.AfterFunc(ctx, func() {
		e.runtime.Interrupt(ctx.Err())
	})
	defer func() {
		stop()
		e.runtime.ClearInterrupt()
	}()

	v, err := e.runtime.RunString("(async function() {\n" + body + "\n})()")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("JS runtime error: %w", err)
	}
	return settle(v)
}

// settle unwraps the promise returned by an async body. Microtasks have
// already run, so anything still pending waits on something that never
// resolves.
func settle(v goja.Value) (interface{}, error) {
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v.Export(), nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		if p.Result() == nil {
			return nil, nil
		}
		return p.Result().Export(), nil
	case goja.PromiseStateRejected:
		reason := p.Result()
		if err, ok := reason.Export().(error); ok {
			return nil, err
		}
		if obj, ok := reason.(*goja.Object); ok {
			// errors raised from Go keep their identity under "value"
			if wrapped := obj.Get("value"); wrapped != nil {
				if err, ok := wrapped.Export().(error); ok {
					return nil, err
				}
			}
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return nil, errors.New(msg.String())
			}
		}
		return nil, errors.New(reason.String())
	default:
		return nil, errors.New("script did not settle")
	}
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}
