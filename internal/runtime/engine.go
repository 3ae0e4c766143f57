// Package runtime implements the chain executor: the state machine that
// drives a Chain against a Context and a build target, one unit of work at
// a time.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cascadehq/cascade/internal/logging"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/ports"
	"github.com/cascadehq/cascade/pkg/registry"
)

// Engine executes chains. It holds no per-execution state and is safely
// shared across many concurrent units of work.
type Engine struct {
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers lifecycle observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine that resolves stage references through reg.
func NewEngine(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute drives the chain against the initial context and a fresh build
// target. It runs synchronously on the calling goroutine until the unit of
// work reaches a terminal state or suspends on a deferral; a suspended
// execution continues on whichever goroutine resolves its last Resumer.
// The returned Execution is the caller's handle on the eventual outcome.
//
// The engine never abandons a suspended execution on its own: callers own
// the timeout and must fail the outstanding Resumer themselves (see the
// suspend package's watchdog).
func (e *Engine) Execute(ctx context.Context, chain *domain.Chain, initial *domain.Context, targets ports.TargetFactory) *Execution {
	if initial == nil {
		initial = domain.NewContext()
	}
	x := &Execution{
		id:      newExecutionID(),
		engine:  e,
		chain:   chain,
		values:  initial,
		targets: targets,
		target:  targets.New(),
		status:  domain.StatusRunning,
		done:    make(chan struct{}),
		started: time.Now(),
		ctx:     ctx,
	}
	x.logger = e.logger.With("execution", x.id)
	x.logger.Debug("Execution started.", "stages", chain.Remaining())
	x.run(ctx)
	return x
}

// run is the executor loop. It is entered once by Execute and re-entered by
// the suspension machinery after a successful resume. It returns when the
// unit of work is terminal or parked on a suspension.
func (x *Execution) run(ctx context.Context) {
	for {
		desc, ok := x.chain.Next()
		if !ok {
			x.finishExhausted(ctx)
			return
		}
		index := x.chain.Visited() - 1
		x.engine.fireStageStart(ctx, x, index, desc)

		stage, err := x.engine.registry.Construct(desc, x.values)
		if err != nil {
			x.fail(ctx, err)
			return
		}

		sc := &scope{exec: x, desc: desc, index: index}
		tr, err := x.act(ctx, stage, sc)
		if err != nil {
			x.fail(ctx, err)
			return
		}

		if tr.Kind() == domain.TransitionUnset {
			tr, err = x.defaultTransition(desc)
			if err != nil {
				x.fail(ctx, err)
				return
			}
		}

		// A stage that opened a deferral must yield Deferred, and one that
		// yields Deferred must have opened a deferral. Anything else is an
		// ambiguous contract, not a domain rejection.
		if sc.susp != nil && tr.Kind() != domain.TransitionDeferred {
			x.fail(ctx, &domain.StageLogicError{Ref: desc.Label(), Reason: "requested deferral but yielded " + tr.Kind().String()})
			return
		}

		x.engine.fireTransition(ctx, x, index, desc, tr)
		x.logger.Debug("Stage yielded transition.", "stage", desc.Label(), "index", index, "kind", tr.Kind().String())

		switch tr.Kind() {
		case domain.TransitionReject:
			continue

		case domain.TransitionContinue:
			if err := x.apply(tr); err != nil {
				x.fail(ctx, err)
				return
			}

		case domain.TransitionTerminate:
			if err := x.apply(tr); err != nil {
				x.fail(ctx, err)
				return
			}
			result := tr.Result()
			if result == nil {
				result = x.target
			}
			x.finish(ctx, domain.Outcome{Status: domain.StatusCompleted, Result: result})
			return

		case domain.TransitionDeferred:
			if sc.susp == nil {
				x.fail(ctx, &domain.StageLogicError{Ref: desc.Label(), Reason: "yielded Deferred without calling Defer"})
				return
			}
			if !x.arm(ctx, sc.susp) {
				return
			}

		default:
			x.fail(ctx, &domain.StageLogicError{Ref: desc.Label(), Reason: fmt.Sprintf("unknown transition kind %d", tr.Kind())})
			return
		}
	}
}

// act invokes the stage, converting panics into ordinary stage failures so
// nothing escapes the executor boundary.
func (x *Execution) act(ctx context.Context, stage domain.Stage, sc *scope) (tr domain.Transition, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			tr = domain.Transition{}
			err = fmt.Errorf("stage %q panicked: %v", sc.desc.Label(), rec)
		}
	}()
	return stage.Act(ctx, sc)
}

// defaultTransition implements the build-target fallback for a stage that
// set no explicit transition: finished means terminate, modified means the
// stage did partial, opportunistic work and the chain continues, untouched
// means the stage forgot its contract.
func (x *Execution) defaultTransition(desc domain.Descriptor) (domain.Transition, error) {
	switch {
	case x.targets.Finished(x.target):
		return domain.Terminate(nil), nil
	case x.targets.Modified(x.target):
		return domain.Continue(), nil
	default:
		return domain.Transition{}, &domain.StageLogicError{Ref: desc.Label(), Reason: "no transition set and build target untouched"}
	}
}

// apply merges a transition's contributed entries into the context,
// locking them when the transition asks for immutable contributions.
func (x *Execution) apply(tr domain.Transition) error {
	entries := tr.Entries()
	if len(entries) == 0 {
		return nil
	}
	if err := x.values.Merge(entries); err != nil {
		return err
	}
	if tr.IsLocked() {
		keys := make([]string, len(entries))
		for i, e := range entries {
			keys[i] = e.Key
		}
		x.values.Lock(keys...)
	}
	return nil
}

// finishExhausted decides the terminal state once the cursor runs off the
// end of the chain: a finished target completes, anything else is the
// rejected outcome and the caller supplies a fallback.
func (x *Execution) finishExhausted(ctx context.Context) {
	if x.targets.Finished(x.target) {
		x.finish(ctx, domain.Outcome{Status: domain.StatusCompleted, Result: x.target})
		return
	}
	x.finish(ctx, domain.Outcome{Status: domain.StatusRejected})
}

func (e *Engine) fireStageStart(ctx context.Context, x *Execution, index int, desc domain.Descriptor) {
	if e.hooks.OnStageStart == nil {
		return
	}
	e.hooks.OnStageStart(ctx, &domain.StageEvent{
		ExecutionID: x.id,
		Index:       index,
		Stage:       desc.Label(),
		Timestamp:   time.Now(),
	})
}

func (e *Engine) fireTransition(ctx context.Context, x *Execution, index int, desc domain.Descriptor, tr domain.Transition) {
	if e.hooks.OnTransition == nil {
		return
	}
	e.hooks.OnTransition(ctx, &domain.TransitionEvent{
		ExecutionID: x.id,
		Index:       index,
		Stage:       desc.Label(),
		Kind:        tr.Kind(),
		Timestamp:   time.Now(),
	})
}

func (e *Engine) fireSuspend(ctx context.Context, x *Execution, s *suspension, outstanding int) {
	if e.hooks.OnSuspend == nil {
		return
	}
	e.hooks.OnSuspend(ctx, &domain.SuspendEvent{
		ExecutionID: x.id,
		Index:       s.index,
		Stage:       s.stage,
		Outstanding: outstanding,
		Timestamp:   time.Now(),
	})
}

func (e *Engine) fireResume(ctx context.Context, x *Execution, s *suspension, failed bool) {
	if e.hooks.OnResume == nil {
		return
	}
	e.hooks.OnResume(ctx, &domain.ResumeEvent{
		ExecutionID: x.id,
		Index:       s.index,
		Failed:      failed,
		Timestamp:   time.Now(),
	})
}

func (e *Engine) fireFinish(ctx context.Context, x *Execution, out domain.Outcome) {
	if e.hooks.OnFinish == nil {
		return
	}
	e.hooks.OnFinish(ctx, &domain.OutcomeEvent{
		ExecutionID: x.id,
		Status:      out.Status,
		Err:         out.Err,
		Visited:     x.chain.Visited(),
		Elapsed:     time.Since(x.started),
		Timestamp:   time.Now(),
	})
}
