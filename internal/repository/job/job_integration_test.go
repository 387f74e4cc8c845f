//go:build integration

package job

import (
	"context"
	"sync"
	"testing"

	"media-digest/internal/model"
	"media-digest/internal/repository/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedContent(t *testing.T, pool Pool, id string) {
	_, err := pool.Exec(context.Background(),
		`INSERT INTO contents (id, kind, title, source_url) VALUES ($1, 'video', 'test', 'https://example.com')`, id)
	require.NoError(t, err)
}

func TestJobQueueIntegration_EnqueueIsIdempotent(t *testing.T) {
	pool := common.SetupTestDB(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	seedContent(t, pool, "video-1")

	first, err := repo.Enqueue(ctx, "video-1", model.JobTypeEnrichAllChunks, nil)
	require.NoError(t, err)
	second, err := repo.Enqueue(ctx, "video-1", model.JobTypeEnrichAllChunks, nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "enqueue while PENDING must return the same job")

	// A different job type gets its own row
	other, err := repo.Enqueue(ctx, "video-1", model.JobTypeExtractAndChunk, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestJobQueueIntegration_ConcurrentClaims(t *testing.T) {
	pool := common.SetupTestDB(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	seedContent(t, pool, "video-1")

	_, err := repo.Enqueue(ctx, "video-1", model.JobTypeExtractAndChunk, nil)
	require.NoError(t, err)

	// Many concurrent claimants; exactly one may win the single PENDING job.
	const claimants = 8
	var wg sync.WaitGroup
	claimed := make(chan *model.Job, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := repo.ClaimNext(ctx, []model.JobType{model.JobTypeExtractAndChunk})
			assert.NoError(t, err)
			if job != nil {
				claimed <- job
			}
		}()
	}
	wg.Wait()
	close(claimed)

	var winners []*model.Job
	for job := range claimed {
		winners = append(winners, job)
	}
	require.Len(t, winners, 1, "exactly one claimant must see the job")
	assert.Equal(t, model.JobStateRunning, winners[0].State)
}

func TestJobQueueIntegration_RetryExhaustion(t *testing.T) {
	pool := common.SetupTestDB(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	seedContent(t, pool, "video-1")

	job, err := repo.Enqueue(ctx, "video-1", model.JobTypeEnrichChunk, nil)
	require.NoError(t, err)

	maxAttempts := 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		claimed, err := repo.ClaimNext(ctx, []model.JobType{model.JobTypeEnrichChunk})
		require.NoError(t, err)
		require.NotNil(t, claimed)
		require.Equal(t, job.ID, claimed.ID)
		assert.Equal(t, attempt, claimed.Attempts, "claim counts as an attempt")

		state, err := repo.Fail(ctx, claimed.ID, "completion service unavailable", true, maxAttempts)
		require.NoError(t, err)
		if attempt < maxAttempts {
			assert.Equal(t, model.JobStatePending, state)
		} else {
			assert.Equal(t, model.JobStateFailed, state)
		}
	}

	final, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStateFailed, final.State)
	assert.Equal(t, maxAttempts, final.Attempts)
	require.NotNil(t, final.LastError)
}
