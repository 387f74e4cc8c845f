package chunk

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chunkCols = []string{
	"content_id", "chunk_index", "text", "word_count", "sentence_count", "overlap_words",
	"short_title", "short_title_generated_at", "short_title_manual",
	"ai_field_1", "ai_field_1_generated_at", "ai_field_1_manual",
	"ai_field_2", "ai_field_2_generated_at", "ai_field_2_manual",
	"ai_field_3", "ai_field_3_generated_at", "ai_field_3_manual",
	"updated_at",
}

func chunkRow(contentID string, index int, text string, words int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(chunkCols).AddRow(
		contentID, index, text, words, 3, 0,
		nil, nil, false,
		nil, nil, false,
		nil, nil, false,
		nil, nil, false,
		now,
	)
}

func TestChunkRepository_CreateBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	drafts := []model.ChunkDraft{
		{ChunkIndex: 0, Text: "first chunk text", WordCount: 3, SentenceCount: 1},
		{ChunkIndex: 1, Text: "second chunk text", WordCount: 3, SentenceCount: 1, OverlapWords: 1},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("video-1", 0, "first chunk text", 3, 1, 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("video-1", 1, "second chunk text", 3, 1, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	repo := NewRepository(mock)
	err = repo.CreateBatch(context.Background(), "video-1", drafts)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_CreateBatch_RollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chunks").
		WithArgs("video-1", 0, "text", 1, 1, 0).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := NewRepository(mock)
	err = repo.CreateBatch(context.Background(), "video-1", []model.ChunkDraft{
		{ChunkIndex: 0, Text: "text", WordCount: 1, SentenceCount: 1},
	})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_CreateBatch_EmptyIsNoop(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock)
	assert.NoError(t, repo.CreateBatch(context.Background(), "video-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_GetByContentID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows(chunkCols).
		AddRow("video-1", 0, "first", 1, 1, 0, nil, nil, false, nil, nil, false, nil, nil, false, nil, nil, false, now).
		AddRow("video-1", 1, "second", 1, 1, 0, nil, nil, false, nil, nil, false, nil, nil, false, nil, nil, false, now)

	mock.ExpectQuery("SELECT (.+) FROM chunks\\s+WHERE content_id = \\$1\\s+ORDER BY chunk_index").
		WithArgs("video-1").
		WillReturnRows(rows)

	repo := NewRepository(mock)
	chunks, err := repo.GetByContentID(context.Background(), "video-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.False(t, chunks[0].Fields[model.FieldTitle].ManuallyEdited)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_UpdateField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	title := "Reactor Meltdown Timeline"
	rows := pgxmock.NewRows(chunkCols).AddRow(
		"video-1", 0, "text", 3, 1, 0,
		&title, &now, false,
		nil, nil, false,
		nil, nil, false,
		nil, nil, false,
		now,
	)

	mock.ExpectQuery("UPDATE chunks SET\\s+short_title = \\$3").
		WithArgs("video-1", 0, "Reactor Meltdown Timeline", pgxmock.AnyArg(), false, false).
		WillReturnRows(rows)

	repo := NewRepository(mock)
	updated, err := repo.UpdateField(context.Background(), "video-1", 0, model.FieldTitle, "Reactor Meltdown Timeline", false, false)
	require.NoError(t, err)
	require.NotNil(t, updated.Fields[model.FieldTitle].Value)
	assert.Equal(t, "Reactor Meltdown Timeline", *updated.Fields[model.FieldTitle].Value)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_UpdateField_GuardsManualEdit(t *testing.T) {
	// The conditional update refuses to touch a manually edited field
	// unless the caller explicitly overwrites.
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE chunks SET\\s+ai_field_2 = \\$3").
		WithArgs("video-1", 0, "regenerated", pgxmock.AnyArg(), false, false).
		WillReturnRows(pgxmock.NewRows(chunkCols))
	// Guard check: chunk exists, so the refusal was the manual-edit guard
	mock.ExpectQuery("SELECT (.+) FROM chunks\\s+WHERE content_id = \\$1 AND chunk_index = \\$2").
		WithArgs("video-1", 0).
		WillReturnRows(chunkRow("video-1", 0, "text", 1))

	repo := NewRepository(mock)
	_, err = repo.UpdateField(context.Background(), "video-1", 0, model.FieldKeyPoints, "regenerated", false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrManuallyEdited))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_UpdateField_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE chunks SET\\s+short_title = \\$3").
		WithArgs("video-1", 99, "value", pgxmock.AnyArg(), false, false).
		WillReturnRows(pgxmock.NewRows(chunkCols))
	mock.ExpectQuery("SELECT (.+) FROM chunks\\s+WHERE content_id = \\$1 AND chunk_index = \\$2").
		WithArgs("video-1", 99).
		WillReturnRows(pgxmock.NewRows(chunkCols))

	repo := NewRepository(mock)
	_, err = repo.UpdateField(context.Background(), "video-1", 99, model.FieldTitle, "value", false, false)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestChunkRepository_CountByContentID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM chunks").
		WithArgs("video-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	repo := NewRepository(mock)
	count, err := repo.CountByContentID(context.Background(), "video-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
