package job

import (
	"context"
	"time"

	"media-digest/internal/model"
)

// Repository defines operations for the durable job queue.
// Job rows are the sole concurrency-control primitive: claiming and retry
// transitions are single conditional updates, never read-then-write.
type Repository interface {
	// Enqueue creates a PENDING job. If a non-terminal job of the same
	// type already exists for the content id, that job is returned
	// unchanged and no new row is created.
	Enqueue(ctx context.Context, contentID string, jobType model.JobType, payload *model.JobPayload) (*model.Job, error)
	// ClaimNext atomically transitions one PENDING job of the given types
	// to RUNNING, incrementing attempts, and returns it. Returns (nil, nil)
	// when no job is ready.
	ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error)
	// Complete transitions a RUNNING job to a terminal state.
	Complete(ctx context.Context, id string, state model.JobState, lastError *string) error
	// Fail records a failed attempt. With retry true the job returns to
	// PENDING while attempts are under maxAttempts; otherwise it becomes
	// FAILED. Returns the resulting state.
	Fail(ctx context.Context, id string, errMsg string, retry bool, maxAttempts int) (model.JobState, error)
	// SweepStale forces RUNNING jobs whose claim expired back to PENDING
	// (or FAILED once attempts are exhausted). Returns how many rows moved.
	SweepStale(ctx context.Context, olderThan time.Duration, maxAttempts int) (int, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ListByContentID(ctx context.Context, contentID string) ([]*model.Job, error)
}
