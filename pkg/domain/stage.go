package domain

import (
	"context"
	"log/slog"
)

// Stage is one unit of chain logic. It is constructed from the current
// Context when the cursor reaches its descriptor, runs exactly once, and
// yields exactly one Transition. Returning the zero Transition defers the
// decision to the executor's build-target default policy; returning a
// non-nil error fails the unit of work.
type Stage interface {
	Act(ctx context.Context, sc Scope) (Transition, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc func(ctx context.Context, sc Scope) (Transition, error)

// Act implements Stage.
func (f StageFunc) Act(ctx context.Context, sc Scope) (Transition, error) {
	return f(ctx, sc)
}

// Scope is the view a stage has of its unit of work. Everything a stage
// needs arrives through its constructor or through Scope; there is no
// ambient or global lookup.
type Scope interface {
	// Context returns the unit of work's object context.
	Context() *Context

	// Target returns the build target accumulator. Stages mutate it in
	// place; the engine only ever consults the TargetFactory predicates.
	Target() any

	// Insert places descriptors immediately after the cursor, so they run
	// next, before anything that was already ahead of this stage.
	Insert(descs ...Descriptor)

	// Append places descriptors at the tail of the chain.
	Append(descs ...Descriptor)

	// Defer requests suspension of the chain and returns the one-shot
	// handle that will resume it. A stage that calls Defer must yield a
	// Deferred transition. Calling Defer more than once coalesces: the
	// chain resumes only after every handle has resolved.
	Defer() Resumer

	// Logger returns the execution-scoped structured logger.
	Logger() *slog.Logger
}

// Resumer is the continuation half of a deferral. Exactly one call to
// Resume or Fail is valid; any further call returns ErrAlreadyResolved.
type Resumer interface {
	// Resume supplies additional context entries and restarts the chain
	// from the next stage once all coalesced deferrals have resolved.
	Resume(entries ...Entry) error

	// Fail resolves the deferral with an error, short-circuiting the unit
	// of work to the failed outcome.
	Fail(err error) error
}

// Descriptor names a stage without resolving it: either a pre-built
// instance, or a reference into the stage registry with optional
// construction arguments. The chain stores descriptors; the executor
// resolves them only when the cursor arrives.
type Descriptor struct {
	// Name is the registry reference. Empty when Stage is set.
	Name string

	// Args carries construction arguments for the registry factory.
	Args map[string]any

	// Stage is the pre-built instance, used as-is without resolution.
	Stage Stage
}

// Inline wraps a pre-built stage instance in a descriptor.
func Inline(s Stage) Descriptor {
	return Descriptor{Stage: s}
}

// Ref references a registered stage factory by name.
func Ref(name string) Descriptor {
	return Descriptor{Name: name}
}

// RefWith references a registered stage factory with construction arguments.
func RefWith(name string, args map[string]any) Descriptor {
	return Descriptor{Name: name, Args: args}
}

// Label returns a human-readable identity for events and errors.
func (d Descriptor) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return "inline"
}
