package cascade

import (
	"context"
	"log/slog"

	"github.com/cascadehq/cascade/internal/logging"
	"github.com/cascadehq/cascade/internal/runtime"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/ports"
	"github.com/cascadehq/cascade/pkg/registry"
)

// Engine is the high-level entry point for the Cascade library. It wraps
// the internal runtime and provides the API consumers use to run chains.
type Engine struct {
	registry *registry.Registry
	runtime  *runtime.Engine
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New initializes a new Cascade Engine around a stage registry. The registry
// may keep being populated after New; construction is resolved per stage,
// when the cursor arrives.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.runtime = runtime.NewEngine(reg,
		runtime.WithLogger(e.logger),
		runtime.WithHooks(e.hooks),
	)
	return e
}

// Registry returns the engine's stage registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Execute runs one unit of work: the chain against the initial context and
// a fresh build target from targets. It returns once the execution is
// terminal or suspended; use the returned handle to wait for the outcome.
func (e *Engine) Execute(ctx context.Context, chain *domain.Chain, initial *domain.Context, targets ports.TargetFactory) *Execution {
	return &Execution{inner: e.runtime.Execute(ctx, chain, initial, targets)}
}

// Run is the blocking convenience form of Execute: it waits for the terminal
// outcome or for ctx cancellation. Cancellation abandons the wait, never the
// execution itself; a suspended execution still needs its Resumer resolved.
func (e *Engine) Run(ctx context.Context, chain *domain.Chain, initial *domain.Context, targets ports.TargetFactory) (domain.Outcome, error) {
	return e.Execute(ctx, chain, initial, targets).Wait(ctx)
}

// Execution is the caller's handle on one in-flight unit of work.
type Execution struct {
	inner *runtime.Execution
}

// ID returns the unique identifier of the unit of work.
func (x *Execution) ID() string { return x.inner.ID() }

// Status returns the current state machine position.
func (x *Execution) Status() domain.Status { return x.inner.Status() }

// Done is closed once the execution reaches a terminal state.
func (x *Execution) Done() <-chan struct{} { return x.inner.Done() }

// Outcome returns the terminal outcome; meaningful only after Done closes.
func (x *Execution) Outcome() domain.Outcome { return x.inner.Outcome() }

// Context returns the execution's object context.
func (x *Execution) Context() *domain.Context { return x.inner.Context() }

// Wait blocks until the execution is terminal or ctx is canceled.
func (x *Execution) Wait(ctx context.Context) (domain.Outcome, error) {
	return x.inner.Wait(ctx)
}
