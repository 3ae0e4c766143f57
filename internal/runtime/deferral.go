package runtime

import (
	"context"
	"sync"

	"github.com/cascadehq/cascade/pkg/domain"
)

// suspension coalesces the deferrals issued by one stage invocation. The
// chain resumes once every outstanding Resumer has resolved successfully;
// the first failure short-circuits and later resolutions for the same
// suspension are discarded.
//
// A suspension is "armed" when the executor observes the Deferred transition
// after the stage returns. Resolutions that arrive earlier — including ones
// made synchronously on the stage's own call stack — are absorbed into the
// suspension and only acted on at arming time, so the cursor never advances
// re-entrantly from inside the call that registered the deferral.
type suspension struct {
	exec  *Execution
	index int
	stage string

	mu          sync.Mutex
	armed       bool
	settled     bool
	outstanding int
	failure     error
	entries     []domain.Entry
}

func (s *suspension) newResumer() domain.Resumer {
	s.mu.Lock()
	s.outstanding++
	s.mu.Unlock()
	return &resumer{susp: s}
}

// arm is called by the executor loop after the stage yields Deferred. It
// reports whether the loop should keep running: true when everything already
// resolved successfully, false when the execution parked or failed.
func (x *Execution) arm(ctx context.Context, s *suspension) bool {
	s.mu.Lock()
	s.armed = true

	if s.failure != nil {
		s.mu.Unlock()
		x.fail(ctx, &domain.AsyncFailure{Err: s.failure})
		return false
	}

	if s.outstanding == 0 {
		// Everything resolved before control returned to the executor.
		// Merge and continue on this stack: control did come back first.
		s.settled = true
		entries := s.entries
		s.mu.Unlock()
		if err := x.values.Merge(entries); err != nil {
			x.fail(ctx, err)
			return false
		}
		return true
	}

	outstanding := s.outstanding
	x.mu.Lock()
	x.status = domain.StatusSuspended
	x.susp = s
	x.mu.Unlock()
	s.mu.Unlock()

	x.logger.Debug("Execution suspended.", "stage", s.stage, "outstanding", outstanding)
	x.engine.fireSuspend(ctx, x, s, outstanding)
	return false
}

// settle completes a parked suspension on the resolver's goroutine.
func (s *suspension) settle(failure error) {
	x := s.exec
	ctx := x.ctx

	x.mu.Lock()
	x.status = domain.StatusRunning
	x.susp = nil
	x.mu.Unlock()

	x.engine.fireResume(ctx, x, s, failure != nil)

	if failure != nil {
		x.logger.Debug("Execution resumed with failure.", "stage", s.stage, "error", failure)
		x.fail(ctx, &domain.AsyncFailure{Err: failure})
		return
	}

	x.logger.Debug("Execution resumed.", "stage", s.stage, "entries", len(s.entries))
	if err := x.values.Merge(s.entries); err != nil {
		x.fail(ctx, err)
		return
	}
	x.run(ctx)
}

// resumer is the one-shot continuation handle issued by Defer. Exactly one
// Resume or Fail call is valid per resumer.
type resumer struct {
	susp     *suspension
	resolved bool
}

var _ domain.Resumer = (*resumer)(nil)

// Resume supplies additional context entries. When this is the last
// outstanding resolution of an armed suspension, the chain continues on the
// calling goroutine.
func (r *resumer) Resume(entries ...domain.Entry) error {
	s := r.susp
	s.mu.Lock()
	if r.resolved {
		s.mu.Unlock()
		return domain.ErrAlreadyResolved
	}
	r.resolved = true

	if s.settled {
		// The suspension already short-circuited on a failure; this late
		// success is discarded without touching observed state.
		s.mu.Unlock()
		s.exec.logger.Debug("Late resolution discarded.", "stage", s.stage)
		return nil
	}

	s.entries = append(s.entries, entries...)
	s.outstanding--
	ready := s.armed && s.outstanding == 0
	if ready {
		s.settled = true
	}
	s.mu.Unlock()

	if ready {
		s.settle(nil)
	}
	return nil
}

// Fail resolves the deferral with an error. The first failure wins the
// suspension; an armed suspension resumes immediately into the failed
// outcome.
func (r *resumer) Fail(err error) error {
	s := r.susp
	s.mu.Lock()
	if r.resolved {
		s.mu.Unlock()
		return domain.ErrAlreadyResolved
	}
	r.resolved = true

	if s.settled {
		s.mu.Unlock()
		s.exec.logger.Debug("Late failure discarded.", "stage", s.stage, "error", err)
		return nil
	}

	s.settled = true
	s.failure = err
	armed := s.armed
	s.mu.Unlock()

	if armed {
		s.settle(err)
	}
	return nil
}
