package domain

// Status is the executor state machine position for one unit of work.
type Status int

const (
	// StatusRunning means stages are being executed.
	StatusRunning Status = iota

	// StatusSuspended means the chain is paused waiting on outstanding
	// Resumers.
	StatusSuspended

	// StatusCompleted means a stage terminated the chain, or the chain was
	// exhausted with a finished build target. Terminal.
	StatusCompleted

	// StatusRejected means the chain was exhausted without the build target
	// being finished: no stage produced a result, and the caller must
	// supply a fallback (for example, not-found). Terminal.
	StatusRejected

	// StatusFailed means a construction, stage, or deferred failure ended
	// the unit of work. Terminal.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusCompleted:
		return "completed"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the unit of work.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Outcome is the terminal result of one unit of work.
type Outcome struct {
	// Status is one of StatusCompleted, StatusRejected, StatusFailed.
	Status Status

	// Result is the finalized value for a completed unit of work. When a
	// terminating stage supplied no explicit result, this is the build
	// target itself.
	Result any

	// Err carries the failure for StatusFailed.
	Err error
}
