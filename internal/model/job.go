package model

import "time"

// JobType identifies the pipeline step a job drives
type JobType string

const (
	JobTypeExtractAndChunk JobType = "extract_and_chunk"
	JobTypeEnrichChunk     JobType = "enrich_chunk"
	JobTypeEnrichAllChunks JobType = "enrich_all_chunks"
)

// JobState is the lifecycle state of a job
type JobState string

const (
	JobStatePending   JobState = "PENDING"
	JobStateRunning   JobState = "RUNNING"
	JobStateSucceeded JobState = "SUCCEEDED"
	JobStateFailed    JobState = "FAILED"
	JobStateSkipped   JobState = "SKIPPED"
)

// IsTerminal reports whether the state admits no further transitions
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateSkipped:
		return true
	default:
		return false
	}
}

// ValidJobTransition enforces the allowed state machine edges:
// PENDING -> RUNNING -> {SUCCEEDED, FAILED, SKIPPED}, plus
// RUNNING -> PENDING as the bounded retry edge.
func ValidJobTransition(from, to JobState) bool {
	switch from {
	case JobStatePending:
		return to == JobStateRunning
	case JobStateRunning:
		return to == JobStateSucceeded || to == JobStateFailed || to == JobStateSkipped || to == JobStatePending
	default:
		return false
	}
}

// JobPayload carries optional per-job parameters.
// For enrich_chunk: the target chunk index and optionally a single field
// to regenerate (regenerating an explicit field overwrites manual edits).
type JobPayload struct {
	ChunkIndex *int    `json:"chunk_index,omitempty"`
	Field      *string `json:"field,omitempty"`
}

// Job is a durable, idempotent unit of background work.
// At most one non-terminal job exists per (content_id, job_type).
// Attempts counts claims, so a job that succeeds on its second try
// finishes with Attempts == 2. Jobs are never deleted; terminal rows
// remain as history.
type Job struct {
	ID        string      `json:"id" db:"id"`
	ContentID string      `json:"content_id" db:"content_id"`
	Type      JobType     `json:"job_type" db:"job_type"`
	State     JobState    `json:"state" db:"state"`
	Attempts  int         `json:"attempts" db:"attempts"`
	LastError *string     `json:"last_error" db:"last_error"`
	Payload   *JobPayload `json:"payload,omitempty" db:"payload"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
