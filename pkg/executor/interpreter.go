// Package executor runs expectation documents against a screen: blocks in
// order, each through the handler for its type, stopping at the first failure.
package executor

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/check"
	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/expectation"
	"github.com/devicelab-dev/screen-expect/pkg/locate"
	"github.com/devicelab-dev/screen-expect/pkg/logger"
	"github.com/devicelab-dev/screen-expect/pkg/screen"
	"github.com/devicelab-dev/screen-expect/pkg/template"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// Options configures an Interpreter.
type Options struct {
	Backend backend.Kind  // KindAuto detects from the screen
	Timeout time.Duration // Wait passed to the driver by visibility matchers

	// FallbackCount is the element count assumed for parameterized locators
	// when no count member exists. The default is 0, which disables the
	// fallback: an undiscoverable count fails with core.ErrCountUnknown
	// instead of silently assuming 10 elements. Set it to 10 to keep the old
	// behavior; a warning is logged whenever the fallback is used.
	FallbackCount int

	// Scripting lets custom-code blocks fall back to their script body.
	Scripting bool
	Registry  *Registry

	// Store is shared with the caller when set; otherwise the interpreter
	// owns a fresh one.
	Store     *vars.Store
	Persister vars.Persister
	// Env seeds the store on creation and after Reset.
	Env map[string]interface{}

	// Rand picks elements for any-mode checks.
	Rand *rand.Rand

	// Driver is handed to custom code. Defaults to the screen's page member.
	Driver interface{}

	// Live progress callbacks
	OnBlockStart func(idx, total int, label string)
	OnBlockEnd   func(result core.BlockResult)
}

// Interpreter validates documents against one screen. The variable store
// lives as long as the interpreter, so values captured by one validation are
// visible to the next. An Interpreter must not run two validations at once.
type Interpreter struct {
	scr   screen.Screen
	opts  Options
	store *vars.Store
}

// New creates an interpreter for scr.
func New(scr screen.Screen, opts Options) *Interpreter {
	store := opts.Store
	if store == nil {
		store = vars.New()
	}
	if opts.Persister != nil {
		store.SetPersister(opts.Persister)
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Driver == nil {
		if m, ok := scr.Lookup(backend.MarkerMember); ok {
			opts.Driver = m.Value()
		}
	}
	in := &Interpreter{scr: scr, opts: opts, store: store}
	in.seed()
	return in
}

// Store returns the interpreter's variable store.
func (in *Interpreter) Store() *vars.Store {
	return in.store
}

// Registry returns the custom-code registry.
func (in *Interpreter) Registry() *Registry {
	return in.opts.Registry
}

// Reset clears captured variables and re-applies Env.
func (in *Interpreter) Reset() {
	in.store.Clear()
	in.seed()
}

func (in *Interpreter) seed() {
	for k, v := range in.opts.Env {
		if err := in.store.Store(k, v); err != nil {
			logger.Warn("seed variable %s: %v", k, err)
		}
	}
}

// run holds the per-validation wiring.
type run struct {
	in        *Interpreter
	doc       *expectation.Document
	data      map[string]interface{}
	adapter   backend.Adapter
	templates *template.Resolver
	eval      *check.Evaluator
}

// task is one unit reported as a block: a document block, or a phase of a
// legacy document.
type task struct {
	result  core.BlockResult
	enabled bool
	exec    func(ctx context.Context) error
}

// Validate runs doc against the screen. testData feeds {{templates}} and
// receives persistStoreAs values; it may be nil.
//
// The returned result is always complete. On failure the error is a
// *core.BlockError naming the first failing block.
func (in *Interpreter) Validate(ctx context.Context, doc *expectation.Document, testData map[string]interface{}) (*core.ValidationResult, error) {
	if doc == nil {
		return nil, core.ErrInvalidDocument.WithMessage("no document")
	}
	if testData == nil {
		testData = make(map[string]interface{})
	}

	r := in.newRun(doc, testData)

	result := &core.ValidationResult{
		ID:        uuid.NewString(),
		Screen:    doc.Screen,
		Legacy:    doc.IsLegacy(),
		Status:    core.StatusRunning,
		StartTime: time.Now(),
	}

	var tasks []task
	if doc.IsLegacy() {
		tasks = r.legacyTasks(&doc.Legacy)
	} else {
		tasks = r.blockTasks(doc.Blocks)
	}

	logger.Info("validating %s: %d blocks, %s backend", doc.Name(), len(tasks), r.adapter.Kind())
	err := r.execute(ctx, tasks, result)

	result.Duration = time.Since(result.StartTime)
	result.Variables = in.store.Dump()
	result.ComputeSummary()
	if err != nil {
		result.Status = core.StatusFailed
		result.Error = err.Error()
		logger.Error("%s failed: %v", doc.Name(), err)
		return result, err
	}
	result.Status = core.StatusPassed
	logger.Info("%s passed: %d/%d blocks", doc.Name(), result.PassedBlocks, result.TotalBlocks)
	return result, nil
}

// newRun selects the backend adapter once and wires the evaluator to it.
func (in *Interpreter) newRun(doc *expectation.Document, data map[string]interface{}) *run {
	adapter := backend.For(in.opts.Backend, in.scr)
	templates := template.New(in.store)
	return &run{
		in:        in,
		doc:       doc,
		data:      data,
		adapter:   adapter,
		templates: templates,
		eval: check.New(check.Config{
			Resolver:  locate.New(adapter, in.opts.FallbackCount),
			Templates: templates,
			Store:     in.store,
			Rand:      in.opts.Rand,
			Timeout:   in.opts.Timeout,
		}),
	}
}

// blockTasks orders blocks by ascending order, keeping document order for ties.
func (r *run) blockTasks(blocks []expectation.Block) []task {
	ordered := make([]*expectation.Block, len(blocks))
	for i := range blocks {
		ordered[i] = &blocks[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	tasks := make([]task, len(ordered))
	for i, b := range ordered {
		b := b
		tasks[i] = task{
			result: core.BlockResult{
				ID:    b.ID,
				Type:  string(b.Type),
				Label: b.Describe(),
				Order: b.Order,
			},
			enabled: b.IsEnabled(),
			exec: func(ctx context.Context) error {
				return r.dispatch(ctx, b)
			},
		}
	}
	return tasks
}

// execute runs tasks in order. The first failure marks every later task
// skipped and is returned as a BlockError.
func (r *run) execute(ctx context.Context, tasks []task, result *core.ValidationResult) error {
	total := len(tasks)
	result.Blocks = make([]core.BlockResult, total)
	for i := range tasks {
		result.Blocks[i] = tasks[i].result
		result.Blocks[i].Index = i
	}

	for i, t := range tasks {
		br := &result.Blocks[i]
		if !t.enabled {
			br.SetStatus(core.StatusSkipped)
			logger.Info("block %d/%d %s: skipped (disabled)", i+1, total, br.Label)
			r.blockEnd(*br)
			continue
		}

		br.SetStatus(core.StatusRunning)
		if r.in.opts.OnBlockStart != nil {
			r.in.opts.OnBlockStart(i, total, br.Label)
		}
		start := time.Now()
		err := ctx.Err()
		if err == nil {
			err = t.exec(ctx)
		}
		br.Duration = time.Since(start)

		if err == nil {
			br.SetStatus(core.StatusPassed)
			logger.Info("block %d/%d %s: passed (%s)", i+1, total, br.Label, br.Duration)
			r.blockEnd(*br)
			continue
		}

		br.SetStatus(core.StatusFailed)
		br.Error = err.Error()
		br.Category = core.CategoryOf(err)
		logger.Error("block %d/%d %s: %v", i+1, total, br.Label, err)
		r.blockEnd(*br)

		for j := i + 1; j < total; j++ {
			result.Blocks[j].SetStatus(core.StatusSkipped)
		}
		return &core.BlockError{
			Index: i,
			Total: total,
			ID:    br.ID,
			Label: br.Label,
			Cause: err,
		}
	}
	return nil
}

func (r *run) blockEnd(br core.BlockResult) {
	if r.in.opts.OnBlockEnd != nil {
		r.in.opts.OnBlockEnd(br)
	}
}

// dispatch routes a block to the handler for its type.
func (r *run) dispatch(ctx context.Context, b *expectation.Block) error {
	switch b.Type {
	case expectation.BlockUIAssertion:
		return r.ui(ctx, b.UI)
	case expectation.BlockCustomCode:
		return r.custom(ctx, b)
	case expectation.BlockFunctionCall:
		return r.call(ctx, b.Call)
	case expectation.BlockDataAssertion:
		return r.dataAssertions(b.Assertions)
	}
	return core.ErrUnknownBlockType.WithMessagef("unknown block type %q", b.Type)
}

// check evaluates one assertion against the screen.
func (r *run) check(ctx context.Context, a check.Assertion) error {
	_, err := r.eval.Evaluate(ctx, r.in.scr, a, r.data)
	return err
}

