package job

import (
	"context"
	"errors"
	"time"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"media-digest/internal/repository/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool interface for abstracting pgx connection pool
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// jobRepository implements Repository using PostgreSQL
type jobRepository struct {
	pool Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool Pool) Repository {
	return &jobRepository{
		pool: pool,
	}
}

const jobColumns = `id, content_id, job_type, state, attempts, last_error, payload, created_at, updated_at`

// Enqueue inserts a PENDING job unless an active one already exists.
// The partial unique index jobs_active_uniq on (content_id, job_type)
// WHERE state IN ('PENDING','RUNNING') makes the insert race-safe; on
// conflict the existing active job is returned unchanged.
func (r *jobRepository) Enqueue(ctx context.Context, contentID string, jobType model.JobType, payload *model.JobPayload) (*model.Job, error) {
	insertSQL := `INSERT INTO jobs (id, content_id, job_type, state, payload)
		VALUES ($1, $2, $3, 'PENDING', $4)
		ON CONFLICT (content_id, job_type) WHERE state IN ('PENDING', 'RUNNING') DO NOTHING
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, insertSQL, uuid.NewString(), contentID, jobType, payload))
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, common.HandlePostgreSQLError(err, "failed to enqueue job")
	}

	// Conflict: return the already-active job
	selectSQL := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE content_id = $1 AND job_type = $2 AND state IN ('PENDING', 'RUNNING')
		ORDER BY created_at
		LIMIT 1`

	job, err = scanJob(r.pool.QueryRow(ctx, selectSQL, contentID, jobType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The active job finished between insert and select; retry once
			return r.Enqueue(ctx, contentID, jobType, payload)
		}
		return nil, common.HandlePostgreSQLError(err, "failed to load active job")
	}
	return job, nil
}

// ClaimNext transitions the oldest eligible PENDING job to RUNNING in a
// single conditional update, counting the claim as an attempt. FOR UPDATE
// SKIP LOCKED guarantees at most one claimant sees a given job.
func (r *jobRepository) ClaimNext(ctx context.Context, types []model.JobType) (*model.Job, error) {
	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	sql := `UPDATE jobs SET state = 'RUNNING', attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM jobs
			WHERE state = 'PENDING' AND job_type = ANY($1)
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns

	job, err := scanJob(r.pool.QueryRow(ctx, sql, typeNames))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No pending jobs
		}
		return nil, common.HandlePostgreSQLError(err, "failed to claim job")
	}
	return job, nil
}

// Complete transitions a RUNNING job to a terminal state
func (r *jobRepository) Complete(ctx context.Context, id string, state model.JobState, lastError *string) error {
	if !state.IsTerminal() {
		return apperrors.New(apperrors.CodeInvalidArg, "complete requires a terminal state")
	}

	sql := `UPDATE jobs SET state = $2, last_error = $3, updated_at = now()
		WHERE id = $1 AND state = 'RUNNING'`

	tag, err := r.pool.Exec(ctx, sql, id, state, lastError)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to complete job")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeConflict, "job is not running")
	}
	return nil
}

// Fail either releases the job back to PENDING or marks it FAILED, in one
// conditional update. Attempts count claims (see ClaimNext), so the retry
// budget check needs no increment here.
func (r *jobRepository) Fail(ctx context.Context, id string, errMsg string, retry bool, maxAttempts int) (model.JobState, error) {
	sql := `UPDATE jobs SET
			state = CASE WHEN $3 AND attempts < $4 THEN 'PENDING' ELSE 'FAILED' END,
			last_error = $2,
			updated_at = now()
		WHERE id = $1 AND state = 'RUNNING'
		RETURNING state`

	var state model.JobState
	err := r.pool.QueryRow(ctx, sql, id, errMsg, retry, maxAttempts).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.New(apperrors.CodeConflict, "job is not running")
		}
		return "", common.HandlePostgreSQLError(err, "failed to fail job")
	}
	return state, nil
}

// SweepStale releases RUNNING jobs whose claim has gone quiet for longer
// than olderThan. Jobs out of attempts become FAILED instead.
func (r *jobRepository) SweepStale(ctx context.Context, olderThan time.Duration, maxAttempts int) (int, error) {
	sql := `UPDATE jobs SET
			state = CASE WHEN attempts < $2 THEN 'PENDING' ELSE 'FAILED' END,
			last_error = 'job exceeded wall-clock timeout',
			updated_at = now()
		WHERE state = 'RUNNING' AND updated_at < now() - make_interval(secs => $1)`

	tag, err := r.pool.Exec(ctx, sql, olderThan.Seconds(), maxAttempts)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to sweep stale jobs")
	}
	return int(tag.RowsAffected()), nil
}

// GetByID retrieves a job by its ID
func (r *jobRepository) GetByID(ctx context.Context, id string) (*model.Job, error) {
	sql := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "job not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get job")
	}
	return job, nil
}

// ListByContentID retrieves all jobs for a content id, newest first
func (r *jobRepository) ListByContentID(ctx context.Context, contentID string) ([]*model.Job, error) {
	sql := `SELECT ` + jobColumns + ` FROM jobs WHERE content_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, sql, contentID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list jobs")
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan job")
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// scanJob reads one job row
func scanJob(row pgx.Row) (*model.Job, error) {
	var job model.Job
	err := row.Scan(
		&job.ID,
		&job.ContentID,
		&job.Type,
		&job.State,
		&job.Attempts,
		&job.LastError,
		&job.Payload,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
