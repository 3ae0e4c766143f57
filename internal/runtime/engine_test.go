package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadehq/cascade/internal/runtime"
	"github.com/cascadehq/cascade/pkg/domain"
	"github.com/cascadehq/cascade/pkg/registry"
)

// memoTarget is a minimal build target for exercising the engine.
type memoTarget struct {
	finished bool
	modified bool
	value    any
}

type memoFactory struct{}

func (memoFactory) New() any { return &memoTarget{} }

func (memoFactory) Finished(t any) bool { return t.(*memoTarget).finished }

func (memoFactory) Modified(t any) bool { return t.(*memoTarget).modified }

func stageOf(fn func(ctx context.Context, sc domain.Scope) (domain.Transition, error)) domain.Descriptor {
	return domain.Inline(domain.StageFunc(fn))
}

func newEngine(t *testing.T) *runtime.Engine {
	t.Helper()
	return runtime.NewEngine(registry.New())
}

func newEngineWithHooks(t *testing.T, suspended, resumed *int) *runtime.Engine {
	t.Helper()
	return runtime.NewEngine(registry.New(), runtime.WithHooks(domain.LifecycleHooks{
		OnSuspend: func(ctx context.Context, ev *domain.SuspendEvent) { *suspended++ },
		OnResume:  func(ctx context.Context, ev *domain.ResumeEvent) { *resumed++ },
	}))
}

func TestExecute_VisitsAllStagesInOrder(t *testing.T) {
	engine := newEngine(t)

	var order []int
	descs := make([]domain.Descriptor, 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		descs = append(descs, stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			order = append(order, i)
			return domain.Continue(domain.E(fmt.Sprintf("k%d", i), i)), nil
		}))
	}

	exec := engine.Execute(context.Background(), domain.NewChain(descs...), domain.NewContext(), memoFactory{})
	out, err := exec.Wait(context.Background())
	require.NoError(t, err)

	// Nothing finished the target, so an exhausted chain is the rejected
	// outcome and the caller supplies the fallback.
	assert.Equal(t, domain.StatusRejected, out.Status)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order, "each stage visited exactly once, in order")

	for i := 0; i < 5; i++ {
		v, ok := exec.Context().Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestExecute_TerminateScenario(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Continue(domain.E("u", 1)), nil
		}),
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Continue(domain.E("v", 2)), nil
		}),
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Terminate(42), nil
		}),
	)

	exec := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{})
	out, err := exec.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, out.Status)
	assert.Equal(t, 42, out.Result)

	u, _ := exec.Context().Get("u")
	v, _ := exec.Context().Get("v")
	assert.Equal(t, 1, u)
	assert.Equal(t, 2, v)
}

func TestExecute_AllRejected(t *testing.T) {
	engine := newEngine(t)

	reject := func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		return domain.Reject(), nil
	}
	chain := domain.NewChain(stageOf(reject), stageOf(reject))
	initial := domain.NewContext(domain.E("seed", true))

	exec := engine.Execute(context.Background(), chain, initial, memoFactory{})
	out, _ := exec.Wait(context.Background())

	assert.Equal(t, domain.StatusRejected, out.Status)
	assert.Equal(t, 1, exec.Context().Len(), "reject must not mutate context")
}

func TestExecute_ExhaustedWithFinishedTarget(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		target := sc.Target().(*memoTarget)
		target.finished = true
		target.value = "done"
		return domain.Continue(), nil
	}))

	out, err := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, out.Status)
	require.IsType(t, &memoTarget{}, out.Result)
	assert.Equal(t, "done", out.Result.(*memoTarget).value)
}

func TestExecute_TerminateNilResultHandsBackTarget(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		sc.Target().(*memoTarget).finished = true
		return domain.Terminate(nil), nil
	}))

	out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	assert.Equal(t, domain.StatusCompleted, out.Status)
	assert.IsType(t, &memoTarget{}, out.Result)
}

func TestExecute_ContextIsSupersetPerStage(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			_, later := sc.Context().Get("b")
			assert.False(t, later, "stage 1 must not observe stage 2's contribution")
			return domain.Continue(domain.E("a", 1)), nil
		}),
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			_, earlier := sc.Context().Get("a")
			assert.True(t, earlier, "stage 2 must observe stage 1's contribution")
			return domain.Continue(domain.E("b", 2)), nil
		}),
	)

	out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	assert.Equal(t, domain.StatusRejected, out.Status)
}

func TestExecute_ConstructionFailures(t *testing.T) {
	t.Run("unknown reference", func(t *testing.T) {
		engine := newEngine(t)
		chain := domain.NewChain(domain.Ref("nope"))

		out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())

		assert.Equal(t, domain.StatusFailed, out.Status)
		var ce *domain.ConstructionError
		require.ErrorAs(t, out.Err, &ce)
		assert.Equal(t, "nope", ce.Ref)
	})

	t.Run("missing dependency", func(t *testing.T) {
		reg := registry.New()
		reg.Register("needs-db", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
			if _, err := domain.Require[string](c, "db"); err != nil {
				return nil, err
			}
			t.Fatal("factory should not get this far")
			return nil, nil
		})
		engine := runtime.NewEngine(reg)

		out, _ := engine.Execute(context.Background(), domain.NewChain(domain.Ref("needs-db")), domain.NewContext(), memoFactory{}).Wait(context.Background())

		assert.Equal(t, domain.StatusFailed, out.Status)
		var ce *domain.ConstructionError
		require.ErrorAs(t, out.Err, &ce)
		assert.ErrorIs(t, out.Err, domain.ErrMissingDependency)
	})
}

func TestExecute_StagePanicBecomesFailedOutcome(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		panic("boom")
	}))

	out, err := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	require.NoError(t, err, "nothing escapes the executor boundary")
	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.Contains(t, out.Err.Error(), "panicked")
}

func TestExecute_StageErrorFails(t *testing.T) {
	engine := newEngine(t)
	sentinel := errors.New("storage offline")

	chain := domain.NewChain(stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		return domain.Transition{}, sentinel
	}))

	out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, sentinel)
}

func TestExecute_DefaultOutcomePolicy(t *testing.T) {
	silent := func(mutate func(*memoTarget)) domain.Descriptor {
		return stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			mutate(sc.Target().(*memoTarget))
			return domain.Transition{}, nil
		})
	}

	t.Run("finished target terminates", func(t *testing.T) {
		engine := newEngine(t)
		visited := false
		chain := domain.NewChain(
			silent(func(m *memoTarget) { m.finished = true }),
			stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
				visited = true
				return domain.Continue(), nil
			}),
		)
		out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
		assert.Equal(t, domain.StatusCompleted, out.Status)
		assert.False(t, visited, "terminate must halt the chain")
	})

	t.Run("modified target continues", func(t *testing.T) {
		engine := newEngine(t)
		visited := false
		chain := domain.NewChain(
			silent(func(m *memoTarget) { m.modified = true }),
			stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
				visited = true
				return domain.Terminate("later"), nil
			}),
		)
		out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
		assert.Equal(t, domain.StatusCompleted, out.Status)
		assert.True(t, visited)
	})

	t.Run("untouched target is a contract violation", func(t *testing.T) {
		engine := newEngine(t)
		chain := domain.NewChain(silent(func(m *memoTarget) {}))
		out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
		assert.Equal(t, domain.StatusFailed, out.Status)
		var le *domain.StageLogicError
		assert.ErrorAs(t, out.Err, &le)
	})
}

func TestExecute_LockedEntriesCannotBeReplaced(t *testing.T) {
	engine := newEngine(t)

	chain := domain.NewChain(
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Continue(domain.E("principal", "alice")).Locked(), nil
		}),
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Continue(domain.E("principal", "mallory")), nil
		}),
	)

	out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())

	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, domain.ErrLockedEntry)
}

func TestExecute_HooksFire(t *testing.T) {
	var starts, transitions, finishes int
	engine := runtime.NewEngine(registry.New(), runtime.WithHooks(domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, ev *domain.StageEvent) { starts++ },
		OnTransition: func(ctx context.Context, ev *domain.TransitionEvent) { transitions++ },
		OnFinish: func(ctx context.Context, ev *domain.OutcomeEvent) {
			finishes++
			assert.Equal(t, domain.StatusCompleted, ev.Status)
			assert.Equal(t, 2, ev.Visited)
		},
	}))

	chain := domain.NewChain(
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Continue(), nil
		}),
		stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Terminate("ok"), nil
		}),
	)
	_, err := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, transitions)
	assert.Equal(t, 1, finishes)
}
