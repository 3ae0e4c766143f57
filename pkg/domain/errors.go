package domain

import (
	"errors"
	"fmt"
)

// ErrAlreadyResolved is returned when a Resumer is resolved more than once.
// A second resolution is a programming error in the caller, never silent.
var ErrAlreadyResolved = errors.New("deferral already resolved")

// ErrMissingDependency is wrapped by Require when a context lookup fails.
var ErrMissingDependency = errors.New("missing dependency")

// ErrLockedEntry is returned by Context.Put when the key was locked by a
// previous stage.
var ErrLockedEntry = errors.New("context entry is locked")

// ErrSuspensionNotFound is returned when a resume token cannot be found in
// the store, or was already claimed.
var ErrSuspensionNotFound = errors.New("suspension not found")

// ConstructionError reports that a stage could not be built from the current
// context: the descriptor referenced an unknown factory, a declared
// dependency was missing, or the factory itself failed. It is always
// terminal for the unit of work and never retried.
type ConstructionError struct {
	Ref string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("constructing stage %q: %v", e.Ref, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// StageLogicError reports an engine contract violation by a stage: an
// ambiguous default outcome, a Deferred transition without a deferral, or a
// deferral abandoned by a non-Deferred transition. It is surfaced distinctly
// from ordinary domain failures so operators can detect misbehaving stages.
type StageLogicError struct {
	Ref    string
	Reason string
}

func (e *StageLogicError) Error() string {
	return fmt.Sprintf("stage %q violated its contract: %s", e.Ref, e.Reason)
}

// AsyncFailure wraps the error a deferred operation resolved with.
type AsyncFailure struct {
	Err error
}

func (e *AsyncFailure) Error() string {
	return fmt.Sprintf("deferred operation failed: %v", e.Err)
}

func (e *AsyncFailure) Unwrap() error { return e.Err }
