package domain

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is a single named object contributed to a Context.
type Entry struct {
	Key   string
	Value any
}

// E is a shorthand constructor for an Entry.
func E(key string, value any) Entry {
	return Entry{Key: key, Value: value}
}

// Context is the additive collection of named objects available for stage
// construction. It grows monotonically as stages complete: the context
// observed by stage N+1 is a superset of what stage N observed plus whatever
// stage N contributed. A later stage may deliberately supply a new value for
// an existing key unless that key has been locked.
//
// A Context is owned by exactly one unit of work, but the goroutine driving
// that unit of work changes across suspensions, so access is synchronized.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
	locked map[string]struct{}
}

// NewContext creates a Context pre-populated with the given entries.
func NewContext(entries ...Entry) *Context {
	c := &Context{
		values: make(map[string]any, len(entries)),
		locked: make(map[string]struct{}),
	}
	for _, e := range entries {
		c.values[e.Key] = e.Value
	}
	return c
}

// Get returns the object stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Put stores value under key, replacing any previous value. Locked keys
// cannot be replaced.
func (c *Context) Put(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, locked := c.locked[key]; locked {
		return fmt.Errorf("put %q: %w", key, ErrLockedEntry)
	}
	c.values[key] = value
	return nil
}

// Merge applies Put for every entry, stopping at the first failure.
func (c *Context) Merge(entries []Entry) error {
	for _, e := range entries {
		if err := c.Put(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// Lock marks keys as immutable for the remainder of the unit of work.
func (c *Context) Lock(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.locked[k] = struct{}{}
	}
}

// Keys returns a sorted list of the keys currently present.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a shallow copy of the current values. The copy is
// detached: mutating it does not affect the Context.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Lookup retrieves a value by key and asserts its type.
func Lookup[T any](c *Context, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Require is Lookup for mandatory dependencies. The returned error wraps
// ErrMissingDependency so stage factories can surface it as a construction
// failure.
func Require[T any](c *Context, key string) (T, error) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrMissingDependency, key)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T, not %T", ErrMissingDependency, key, v, zero)
	}
	return typed, nil
}
