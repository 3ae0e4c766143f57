/*
Package ports defines the driven ports (interfaces) for the Cascade engine.

These interfaces decouple the core loop from its collaborators: the transport
layer that packages results, the factory that owns the build target, and the
stores that persist suspension records across replicas.

# Key Interfaces

  - TargetFactory: creates build targets and answers the finished/modified
    predicates that drive the executor's default-outcome policy.
  - ErrorSink: receives failures that occur outside any stage, such as final
    result packaging errors in the transport layer.
  - SuspensionStore: persists suspension records and claims resume tokens
    exactly once.
*/
package ports
