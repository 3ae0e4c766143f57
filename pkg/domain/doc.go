/*
Package domain contains the core domain models for the Cascade engine.

It defines the fundamental entities of the chain execution model: the Chain
of stage descriptors, the additive Context of named objects, the Transition
a stage yields, and the terminal Outcome of a unit of work. This package is
kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Stage: one unit of chain logic, yielding exactly one Transition.
  - Descriptor: either a pre-built Stage or a reference to a registered one.
  - Chain: the dynamically extensible, cursor-driven stage sequence.
  - Context: the additive mapping of objects available for stage construction.
  - Transition: tagged outcome of a stage (Reject, Continue, Terminate, Deferred).
  - Resumer: one-shot continuation handle for a suspended chain.
*/
package domain
