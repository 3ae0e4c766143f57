/*
Package cascade is an asynchronous chain-execution engine: it runs an
ordered, dynamically extensible sequence of independently constructed stages
against a shared, incrementally built result, where any stage may suspend
the sequence pending an external event and later resume it.

# Concept

A unit of work (for example, one incoming request) owns a Chain of stage
descriptors and a Context of named objects. The executor walks the chain
with a cursor, constructing each stage from the current Context through the
registry, and applies the Transition the stage yields:

  - Reject: the stage declines; the chain continues unchanged.
  - Continue: the stage accepts and may contribute objects for later stages.
  - Terminate: the stage finalizes the build target and halts the chain.
  - Deferred: the chain pauses until every Resumer the stage issued resolves.

Stages can insert descriptors ahead of the cursor while executing, deciding
dynamically what runs after them. When the chain is exhausted the build
target's finished predicate decides between the completed and rejected
outcomes.

# Usage

	reg := registry.New()
	reg.Register("greet", func(c *domain.Context, args map[string]any) (domain.Stage, error) {
		return domain.StageFunc(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
			return domain.Terminate("hello"), nil
		}), nil
	})

	engine := cascade.New(reg)
	exec := engine.Execute(ctx, domain.NewChain(domain.Ref("greet")), domain.NewContext(), targets)
	outcome, err := exec.Wait(ctx)

Adapters under pkg/adapters package outcomes into transports; pkg/suspend
owns resume tokens and the watchdog for suspended executions.
*/
package cascade
