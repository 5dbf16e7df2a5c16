package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents the lifecycle of a scheduled job
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateExecuting JobState = "executing"
	JobStateDone      JobState = "done"
	JobStateFailed    JobState = "failed"
)

// ScheduledJob is a persisted one-shot unit of work. Kind selects the
// registered handler; Payload is the handler's JSON-encoded input.
// Jobs reference their subject by id only, so the job subsystem
// outlives any single event.
type ScheduledJob struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Payload   []byte    `json:"payload"`
	RunAt     time.Time `json:"run_at"`
	State     JobState  `json:"state"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
