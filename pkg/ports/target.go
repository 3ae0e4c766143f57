package ports

// TargetFactory is the build-target contract supplied by the transport
// collaborator. The engine never inspects target internals; it only calls
// these three functions to drive the default-outcome policy and to know when
// to stop early.
type TargetFactory interface {
	// New creates a fresh accumulator for one unit of work, before the
	// first stage runs.
	New() any

	// Finished reports whether the target is terminal: a stage that stays
	// silent with a finished target is treated as terminating the chain.
	Finished(target any) bool

	// Modified reports whether the target has been touched since creation:
	// a silent stage with a modified but unfinished target is treated as
	// continuing the chain.
	Modified(target any) bool
}
