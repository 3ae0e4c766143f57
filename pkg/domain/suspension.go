package domain

import "time"

// Suspension is the persistent record of a suspended unit of work, keyed by
// its resume token. The record is what survives across replicas: the live
// Resumer stays in the process that suspended, the record lets any replica
// decide whether a token is still claimable.
type Suspension struct {
	Token       string    `json:"token"`
	ExecutionID string    `json:"execution_id"`
	Stage       string    `json:"stage,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Deadline    time.Time `json:"deadline,omitempty"`
}
