package executor

import (
	"context"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expect"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/jsengine"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
)

// custom runs a custom-code block: the registered function for its key, or
// its script body when scripting is enabled.
func (r *run) custom(ctx context.Context, b *expectation.Block) error {
	key := b.CodeKey()
	if fn, ok := r.in.opts.Registry.Lookup(key); ok {
		return r.runCustom(ctx, fn)
	}

	if strings.TrimSpace(b.Script) != "" {
		if !r.in.opts.Scripting {
			return core.ErrUnknownCustomCode.WithMessagef("no custom code registered for %q and scripting is disabled", key)
		}
		return r.runScript(ctx, b.Describe(), b.Script)
	}
	return core.ErrUnknownCustomCode.WithMessagef("no custom code registered for %q", key)
}

func (r *run) env() *CustomEnv {
	return &CustomEnv{
		Driver:      r.in.opts.Driver,
		Screen:      r.in.scr,
		TestData:    r.data,
		Vars:        r.in.store,
		Expect:      expect.That,
		Interpreter: r.in,
		run:         r,
	}
}

func (r *run) runCustom(ctx context.Context, fn CustomFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = core.ErrCustomCode.WithMessagef("custom code panicked: %v", p)
		}
	}()
	if err := fn(ctx, r.env()); err != nil {
		return core.ErrCustomCode.WithCause(err)
	}
	return nil
}

func (r *run) runScript(ctx context.Context, label, script string) error {
	engine := jsengine.New(jsengine.Bindings{
		Screen:   r.in.scr,
		Driver:   r.in.opts.Driver,
		TestData: r.data,
		Vars:     r.in.store,
		Check: func(ctx context.Context, a check.Assertion) (interface{}, error) {
			return r.eval.Evaluate(ctx, r.in.scr, a, r.data)
		},
	})
	out, err := engine.Run(ctx, script)
	if err != nil {
		return core.ErrCustomCode.WithCause(err)
	}
	logger.Debug("script %s returned %v", label, out)
	return nil
}
