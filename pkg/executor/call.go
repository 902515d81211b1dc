package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/template"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// call runs a function-call block and captures the result.
func (r *run) call(ctx context.Context, c *expectation.FunctionCall) error {
	if c == nil {
		return core.ErrInvalidDocument.WithMessage("function-call block has no data")
	}
	out, ok, err := r.invoke(ctx, c)
	if err != nil || !ok {
		return err
	}
	return r.capture(c.StoreAs, c.PersistStoreAs, out)
}

// invoke calls the method named by c. ok is false when a call that is not
// awaited failed and nothing should be captured.
func (r *run) invoke(ctx context.Context, c *expectation.FunctionCall) (out interface{}, ok bool, err error) {
	target, where, err := r.instance(ctx, c.Instance)
	if err != nil {
		return nil, false, err
	}

	method := r.templates.Interpolate(c.Method, r.data)
	m, found := target.Lookup(method)
	if !found {
		return nil, false, core.ErrMethodNotFound.
			WithMessagef("method %q not found on %s; available: %s", method, where, strings.Join(target.Names(), ", ")).
			WithDetails(map[string]interface{}{"method": method, "known": target.Names()})
	}
	if !m.IsFunc() {
		return nil, false, core.ErrMethodNotFound.WithMessagef("%s.%s is not a method", where, method)
	}

	args := make([]interface{}, len(c.Args))
	for i, a := range c.Args {
		args[i] = r.templates.Resolve(a, r.data)
	}

	logger.Debug("calling %s.%s with %d args", where, method, len(args))
	out, err = m.Call(ctx, args...)
	if err != nil {
		if !c.Awaits() {
			logger.Warn("%s.%s failed, not awaited: %v", where, method, err)
			return nil, false, nil
		}
		return nil, false, core.ErrInvocation.WithMessagef("%s.%s failed", where, method).WithCause(err)
	}
	return out, true, nil
}

// instance resolves the object a method is called on: the screen itself, a
// {{variable}} holding an object, or a dotted member path on the screen.
// Factory members along the path are invoked.
func (r *run) instance(ctx context.Context, path string) (screen.Screen, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return r.in.scr, "screen", nil
	}

	if ref, ok := template.IsToken(path); ok {
		v, found := r.templates.Lookup(ref, r.data)
		if !found {
			return nil, path, core.ErrInvocation.WithMessagef("instance %s is not defined", path)
		}
		s, ok := screen.Wrap(v)
		if !ok {
			return nil, path, core.ErrInvocation.WithMessagef("instance %s is a %T, not an object", path, v)
		}
		return s, ref, nil
	}

	cur := r.in.scr
	for i, name := range strings.Split(path, ".") {
		m, ok := cur.Lookup(name)
		if !ok {
			return nil, path, core.FieldNotFound(name, cur.Names())
		}
		v := m.Value()
		if m.IsFactory() {
			out, err := m.Call(ctx)
			if err != nil {
				return nil, path, core.ErrInvocation.WithMessagef("%s failed", name).WithCause(err)
			}
			v = out
		}
		next, ok := screen.Wrap(v)
		if !ok {
			where := strings.Join(strings.Split(path, ".")[:i+1], ".")
			return nil, path, core.ErrInvocation.WithMessagef("instance %s is a %T, not an object", where, v)
		}
		cur = next
	}
	return cur, path, nil
}

// capture writes v under storeAs and, mirrored into test data, persistStoreAs.
func (r *run) capture(storeAs, persistStoreAs string, v interface{}) error {
	store := r.in.store
	if storeAs != "" {
		if err := store.Store(storeAs, v); err != nil {
			return err
		}
	}
	if persistStoreAs != "" {
		if err := store.Store(persistStoreAs, v, vars.PersistTo(r.data)); err != nil {
			return fmt.Errorf("persist %s: %w", persistStoreAs, err)
		}
	}
	return nil
}
