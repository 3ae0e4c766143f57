package domain

// TransitionKind tags the outcome a stage yielded.
type TransitionKind int

const (
	// TransitionUnset means the stage set no explicit transition; the
	// executor applies the build-target default policy.
	TransitionUnset TransitionKind = iota

	// TransitionReject means the stage declines to participate. The chain
	// continues unchanged. This signals "not applicable", never "error".
	TransitionReject

	// TransitionContinue means the stage accepts; any contributed entries
	// are merged into the Context for subsequent stages.
	TransitionContinue

	// TransitionTerminate means the stage finalized the build target and
	// the chain halts.
	TransitionTerminate

	// TransitionDeferred means the stage requested suspension; the cursor
	// does not advance until the outstanding Resumers are resolved.
	TransitionDeferred
)

// String implements fmt.Stringer.
func (k TransitionKind) String() string {
	switch k {
	case TransitionUnset:
		return "unset"
	case TransitionReject:
		return "reject"
	case TransitionContinue:
		return "continue"
	case TransitionTerminate:
		return "terminate"
	case TransitionDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Transition is the tagged outcome of a single stage. Exactly one is
// produced per stage execution. The zero value is the unset transition.
type Transition struct {
	kind    TransitionKind
	entries []Entry
	result  any
	locked  bool
}

// Reject yields a transition declining to participate.
func Reject() Transition {
	return Transition{kind: TransitionReject}
}

// Continue yields a transition advancing the chain, optionally contributing
// entries to the Context.
func Continue(entries ...Entry) Transition {
	return Transition{kind: TransitionContinue, entries: entries}
}

// Terminate yields a transition halting the chain with a final result. A nil
// result means "use the build target".
func Terminate(result any) Transition {
	return Transition{kind: TransitionTerminate, result: result}
}

// Deferred yields a transition suspending the chain until every Resumer
// issued by this stage is resolved.
func Deferred() Transition {
	return Transition{kind: TransitionDeferred}
}

// With adds contributed entries to the transition.
func (t Transition) With(entries ...Entry) Transition {
	t.entries = append(t.entries[:len(t.entries):len(t.entries)], entries...)
	return t
}

// Locked marks the contributed entries as immutable context rather than
// transient values: later stages cannot replace them.
func (t Transition) Locked() Transition {
	t.locked = true
	return t
}

// Kind returns the transition tag.
func (t Transition) Kind() TransitionKind { return t.kind }

// Entries returns the contributed entries.
func (t Transition) Entries() []Entry { return t.entries }

// Result returns the final result of a Terminate transition.
func (t Transition) Result() any { return t.result }

// IsLocked reports whether the contributed entries are locked.
func (t Transition) IsLocked() bool { return t.locked }
