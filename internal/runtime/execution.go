package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/ports"
)

// Execution is one in-flight unit of work: a chain, its context, and its
// build target. It is created by Engine.Execute and lives until a terminal
// outcome is reached.
type Execution struct {
	id      string
	engine  *Engine
	chain   *domain.Chain
	values  *domain.Context
	targets ports.TargetFactory
	target  any
	logger  *slog.Logger
	started time.Time

	// ctx is the execution-scoped context handed to Execute. Suspensions
	// outlive the Execute call, so continuation on a resolver's goroutine
	// reuses it; callers must keep it alive while an execution is
	// suspended.
	ctx context.Context

	mu      sync.Mutex
	status  domain.Status
	outcome domain.Outcome
	susp    *suspension
	done    chan struct{}
}

func newExecutionID() string {
	return uuid.NewString()
}

// ID returns the unique identifier of this unit of work.
func (x *Execution) ID() string { return x.id }

// Status returns the current state machine position.
func (x *Execution) Status() domain.Status {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.status
}

// Done is closed once the execution reaches a terminal state.
func (x *Execution) Done() <-chan struct{} { return x.done }

// Outcome returns the terminal outcome. It is only meaningful after Done is
// closed; before that it is the zero Outcome.
func (x *Execution) Outcome() domain.Outcome {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.outcome
}

// Context returns the execution's object context.
func (x *Execution) Context() *domain.Context { return x.values }

// Wait blocks until the execution is terminal or ctx is canceled.
func (x *Execution) Wait(ctx context.Context) (domain.Outcome, error) {
	select {
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	case <-x.done:
		return x.Outcome(), nil
	}
}

// fail ends the unit of work with the failed outcome. All stage-local
// failures funnel through here; nothing escapes Execute as a raw fault.
func (x *Execution) fail(ctx context.Context, err error) {
	x.finish(ctx, domain.Outcome{Status: domain.StatusFailed, Err: err})
}

// finish records the terminal outcome exactly once.
func (x *Execution) finish(ctx context.Context, out domain.Outcome) {
	x.mu.Lock()
	if x.status.Terminal() {
		x.mu.Unlock()
		x.logger.Warn("Duplicate terminal outcome dropped.", "status", out.Status.String())
		return
	}
	x.status = out.Status
	x.outcome = out
	x.susp = nil
	x.mu.Unlock()

	switch out.Status {
	case domain.StatusFailed:
		x.logger.Debug("Execution failed.", "error", out.Err, "visited", x.chain.Visited())
	default:
		x.logger.Debug("Execution finished.", "status", out.Status.String(), "visited", x.chain.Visited())
	}
	x.engine.fireFinish(ctx, x, out)
	close(x.done)
}
