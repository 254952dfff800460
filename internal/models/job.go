package models

import "time"

type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusDispatched JobStatus = "dispatched"
	JobStatusRetrying   JobStatus = "retrying"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
)

// TranscodeJob is the unit of work pushed through the durable queue. Key is the
// composite upload identifier and doubles as the raw-bucket object key.
type TranscodeJob struct {
	Key        string    `json:"key" redis:"key" validate:"required"`
	EnqueuedAt time.Time `json:"enqueued_at" redis:"enqueued_at" validate:"omitempty"`
	Attempt    int       `json:"attempt" redis:"attempt" validate:"omitempty"`
}
