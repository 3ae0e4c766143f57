package domain

import (
	"context"
	"time"
)

// StageEvent describes the executor reaching a stage descriptor.
type StageEvent struct {
	ExecutionID string    `json:"execution_id"`
	Index       int       `json:"index"`
	Stage       string    `json:"stage"`
	Timestamp   time.Time `json:"timestamp"`
}

// TransitionEvent describes the transition a stage yielded.
type TransitionEvent struct {
	ExecutionID string         `json:"execution_id"`
	Index       int            `json:"index"`
	Stage       string         `json:"stage"`
	Kind        TransitionKind `json:"kind"`
	Timestamp   time.Time      `json:"timestamp"`
}

// SuspendEvent describes the chain pausing on outstanding deferrals.
type SuspendEvent struct {
	ExecutionID string    `json:"execution_id"`
	Index       int       `json:"index"`
	Stage       string    `json:"stage"`
	Outstanding int       `json:"outstanding"`
	Timestamp   time.Time `json:"timestamp"`
}

// ResumeEvent describes the chain restarting after a suspension.
type ResumeEvent struct {
	ExecutionID string    `json:"execution_id"`
	Index       int       `json:"index"`
	Failed      bool      `json:"failed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// OutcomeEvent describes the terminal state of a unit of work.
type OutcomeEvent struct {
	ExecutionID string        `json:"execution_id"`
	Status      Status        `json:"status"`
	Err         error         `json:"-"`
	Visited     int           `json:"visited"`
	Elapsed     time.Duration `json:"elapsed"`
	Timestamp   time.Time     `json:"timestamp"`
}

// LifecycleHooks defines callbacks for engine observability. Any field may
// be nil. Hooks run synchronously on the driving goroutine and must not
// block.
type LifecycleHooks struct {
	OnStageStart func(context.Context, *StageEvent)
	OnTransition func(context.Context, *TransitionEvent)
	OnSuspend    func(context.Context, *SuspendEvent)
	OnResume     func(context.Context, *ResumeEvent)
	OnFinish     func(context.Context, *OutcomeEvent)
}
