package job

import (
	"context"
	"testing"
	"time"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobRow(id, contentID string, jobType model.JobType, state model.JobState, attempts int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "content_id", "job_type", "state", "attempts", "last_error", "payload", "created_at", "updated_at",
	}).AddRow(id, contentID, string(jobType), string(state), attempts, nil, nil, now, now)
}

func TestJobRepository_Enqueue_CreatesPendingJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs(pgxmock.AnyArg(), "video-1", model.JobTypeExtractAndChunk, pgxmock.AnyArg()).
		WillReturnRows(jobRow("11111111-1111-1111-1111-111111111111", "video-1", model.JobTypeExtractAndChunk, model.JobStatePending, 0))

	repo := NewRepository(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := repo.Enqueue(ctx, "video-1", model.JobTypeExtractAndChunk, nil)
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", job.ID)
	assert.Equal(t, model.JobStatePending, job.State)
	assert.Equal(t, 0, job.Attempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Enqueue_ReturnsActiveJobOnConflict(t *testing.T) {
	// Enqueue while a job of the same type is still PENDING must return
	// the existing job id, not create a duplicate.
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs(pgxmock.AnyArg(), "video-1", model.JobTypeEnrichAllChunks, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "content_id", "job_type", "state", "attempts", "last_error", "payload", "created_at", "updated_at",
		})) // conflict: ON CONFLICT DO NOTHING yields no row
	mock.ExpectQuery("SELECT id, content_id, job_type, state, attempts, last_error, payload, created_at, updated_at\\s+FROM jobs").
		WithArgs("video-1", model.JobTypeEnrichAllChunks).
		WillReturnRows(jobRow("22222222-2222-2222-2222-222222222222", "video-1", model.JobTypeEnrichAllChunks, model.JobStatePending, 0))

	repo := NewRepository(mock)

	job, err := repo.Enqueue(context.Background(), "video-1", model.JobTypeEnrichAllChunks, nil)
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", job.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_ClaimNext(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock pgxmock.PgxPoolIface)
		wantJob  bool
		wantErr  bool
	}{
		{
			name: "claims pending job",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("UPDATE jobs SET state = 'RUNNING'").
					WithArgs([]string{"extract_and_chunk", "enrich_all_chunks"}).
					WillReturnRows(jobRow("33333333-3333-3333-3333-333333333333", "video-1", model.JobTypeExtractAndChunk, model.JobStateRunning, 0))
			},
			wantJob: true,
		},
		{
			name: "no pending jobs",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("UPDATE jobs SET state = 'RUNNING'").
					WithArgs([]string{"extract_and_chunk", "enrich_all_chunks"}).
					WillReturnRows(pgxmock.NewRows([]string{
						"id", "content_id", "job_type", "state", "attempts", "last_error", "payload", "created_at", "updated_at",
					}))
			},
			wantJob: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock)

			repo := NewRepository(mock)
			job, err := repo.ClaimNext(context.Background(), []model.JobType{model.JobTypeExtractAndChunk, model.JobTypeEnrichAllChunks})

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantJob {
				require.NotNil(t, job)
				assert.Equal(t, model.JobStateRunning, job.State)
			} else {
				assert.Nil(t, job)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepository_Complete(t *testing.T) {
	tests := []struct {
		name     string
		state    model.JobState
		rows     int64
		wantCode string
	}{
		{
			name:  "succeeded",
			state: model.JobStateSucceeded,
			rows:  1,
		},
		{
			name:  "skipped",
			state: model.JobStateSkipped,
			rows:  1,
		},
		{
			name:     "job not running",
			state:    model.JobStateSucceeded,
			rows:     0,
			wantCode: apperrors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectExec("UPDATE jobs SET state = \\$2").
				WithArgs("job-1", tt.state, pgxmock.AnyArg()).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			repo := NewRepository(mock)
			err = repo.Complete(context.Background(), "job-1", tt.state, nil)

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, tt.wantCode))
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepository_Complete_RejectsNonTerminalState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	err = repo.Complete(context.Background(), "job-1", model.JobStateRunning, nil)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArg))
}

func TestJobRepository_Fail(t *testing.T) {
	tests := []struct {
		name      string
		retry     bool
		wantState model.JobState
	}{
		{
			name:      "retryable failure returns to pending",
			retry:     true,
			wantState: model.JobStatePending,
		},
		{
			name:      "permanent failure",
			retry:     false,
			wantState: model.JobStateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery("UPDATE jobs SET").
				WithArgs("job-1", "boom", tt.retry, 3).
				WillReturnRows(pgxmock.NewRows([]string{"state"}).AddRow(string(tt.wantState)))

			repo := NewRepository(mock)
			state, err := repo.Fail(context.Background(), "job-1", "boom", tt.retry, 3)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, state)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestJobRepository_SweepStale(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE jobs SET").
		WithArgs(float64(1800), 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	repo := NewRepository(mock)
	moved, err := repo.SweepStale(context.Background(), 30*time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, content_id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "content_id", "job_type", "state", "attempts", "last_error", "payload", "created_at", "updated_at",
		}))

	repo := NewRepository(mock)
	_, err = repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
