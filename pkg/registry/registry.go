// Package registry maps stage names to factories. It is the explicit
// replacement for reflective type-tag instantiation: dependency resolution
// is a plain context lookup inside each factory.
package registry

import (
	"fmt"
	"sync"

	"github.com/cascadehq/cascade/pkg/domain"
)

// Factory builds a stage from the currently accumulated context and the
// descriptor's construction arguments. Factories resolve their declared
// dependencies with domain.Require; a missing dependency or any other
// factory error becomes a ConstructionError.
type Factory func(c *domain.Context, args map[string]any) (domain.Stage, error)

// Registry holds the registered stage factories. It is stateless after
// setup and safely shared across many concurrent units of work.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a stage factory under name. If a factory with the same name
// exists, it is overwritten.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered factory names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Construct resolves a descriptor against the current context. A pre-built
// instance is returned unchanged, without resolution. A reference is built
// by its factory; an unknown reference or a factory failure is returned as
// a *domain.ConstructionError, terminal for the unit of work.
func (r *Registry) Construct(desc domain.Descriptor, c *domain.Context) (stage domain.Stage, err error) {
	if desc.Stage != nil {
		return desc.Stage, nil
	}

	r.mu.RLock()
	factory, ok := r.factories[desc.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.ConstructionError{Ref: desc.Name, Err: fmt.Errorf("no factory registered")}
	}

	// Factories run arbitrary construction logic; a panic there must end
	// the unit of work as a construction failure, not escape the engine.
	defer func() {
		if rec := recover(); rec != nil {
			stage = nil
			err = &domain.ConstructionError{Ref: desc.Name, Err: fmt.Errorf("factory panicked: %v", rec)}
		}
	}()

	stage, err = factory(c, desc.Args)
	if err != nil {
		return nil, &domain.ConstructionError{Ref: desc.Name, Err: err}
	}
	if stage == nil {
		return nil, &domain.ConstructionError{Ref: desc.Name, Err: fmt.Errorf("factory returned no stage")}
	}
	return stage, nil
}
