// Package dsl provides a fluent builder for assembling chains in Go code,
// as an alternative to YAML pipeline files.
package dsl

import (
	"context"

	"github.com/cascadehq/cascade/pkg/domain"
)

// Builder accumulates stage descriptors in order.
type Builder struct {
	descs []domain.Descriptor
}

// New creates an empty chain builder.
func New() *Builder {
	return &Builder{}
}

// Use appends a registry reference.
func (b *Builder) Use(name string) *Builder {
	b.descs = append(b.descs, domain.Ref(name))
	return b
}

// UseWith appends a registry reference with construction arguments.
func (b *Builder) UseWith(name string, args map[string]any) *Builder {
	b.descs = append(b.descs, domain.RefWith(name, args))
	return b
}

// Stage appends a pre-built stage instance.
func (b *Builder) Stage(s domain.Stage) *Builder {
	b.descs = append(b.descs, domain.Inline(s))
	return b
}

// Func appends a plain function as an inline stage.
func (b *Builder) Func(f func(ctx context.Context, sc domain.Scope) (domain.Transition, error)) *Builder {
	return b.Stage(domain.StageFunc(f))
}

// Build compiles the accumulated descriptors into a fresh Chain. Each call
// returns an independent chain, since chains are mutated during execution.
func (b *Builder) Build() *domain.Chain {
	descs := make([]domain.Descriptor, len(b.descs))
	copy(descs, b.descs)
	return domain.NewChain(descs...)
}
