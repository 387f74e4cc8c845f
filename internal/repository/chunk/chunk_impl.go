package chunk

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"media-digest/internal/repository/common"
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

// chunkRepository implements Repository using PostgreSQL
type chunkRepository struct {
	pool Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool Pool) Repository {
	return &chunkRepository{
		pool: pool,
	}
}

const chunkColumns = `content_id, chunk_index, text, word_count, sentence_count, overlap_words,
		short_title, short_title_generated_at, short_title_manual,
		ai_field_1, ai_field_1_generated_at, ai_field_1_manual,
		ai_field_2, ai_field_2_generated_at, ai_field_2_manual,
		ai_field_3, ai_field_3_generated_at, ai_field_3_manual,
		updated_at`

// CreateBatch inserts all chunks for a content id inside a single
// transaction. Conflicting rows are overwritten, which makes re-running
// extraction idempotent without losing already-generated AI fields.
func (r *chunkRepository) CreateBatch(ctx context.Context, contentID string, drafts []model.ChunkDraft) error {
	if len(drafts) == 0 {
		return nil // Nothing to insert
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to begin chunk batch transaction")
	}
	defer tx.Rollback(ctx)

	sql := `INSERT INTO chunks (content_id, chunk_index, text, word_count, sentence_count, overlap_words)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (content_id, chunk_index) DO UPDATE SET
			text = EXCLUDED.text,
			word_count = EXCLUDED.word_count,
			sentence_count = EXCLUDED.sentence_count,
			overlap_words = EXCLUDED.overlap_words,
			updated_at = now()`

	for _, draft := range drafts {
		_, err := tx.Exec(ctx, sql,
			contentID,
			draft.ChunkIndex,
			draft.Text,
			draft.WordCount,
			draft.SentenceCount,
			draft.OverlapWords,
		)
		if err != nil {
			return common.HandlePostgreSQLError(err, "failed to insert chunk")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return common.HandlePostgreSQLError(err, "failed to commit chunk batch")
	}
	return nil
}

// GetByContentID retrieves all chunks for a content id, ordered by chunk_index
func (r *chunkRepository) GetByContentID(ctx context.Context, contentID string) ([]*model.Chunk, error) {
	sql := `SELECT ` + chunkColumns + `
		FROM chunks
		WHERE content_id = $1
		ORDER BY chunk_index`

	rows, err := r.pool.Query(ctx, sql, contentID)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to get chunks")
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan chunk")
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// GetByIndex retrieves a single chunk by its compound key
func (r *chunkRepository) GetByIndex(ctx context.Context, contentID string, index int) (*model.Chunk, error) {
	sql := `SELECT ` + chunkColumns + `
		FROM chunks
		WHERE content_id = $1 AND chunk_index = $2`

	chunk, err := scanChunk(r.pool.QueryRow(ctx, sql, contentID, index))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "chunk not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get chunk")
	}
	return chunk, nil
}

// CountByContentID returns the number of stored chunks for a content id
func (r *chunkRepository) CountByContentID(ctx context.Context, contentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunks WHERE content_id = $1", contentID).Scan(&count)
	if err != nil {
		return 0, common.HandlePostgreSQLError(err, "failed to count chunks")
	}
	return count, nil
}

// UpdateField writes a single AI field using a conditional update so a
// concurrent manual edit is never silently overwritten. Field name to
// column mapping happens here and nowhere else.
func (r *chunkRepository) UpdateField(ctx context.Context, contentID string, index int, field model.Field, value string, manuallyEdited, overwriteManual bool) (*model.Chunk, error) {
	column := field.ColumnName()
	if column == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "unknown enrichment field")
	}

	// column comes from the closed Field enum, never from caller input
	sql := fmt.Sprintf(`UPDATE chunks SET
			%s = $3,
			%s_generated_at = $4,
			%s_manual = $5,
			updated_at = now()
		WHERE content_id = $1 AND chunk_index = $2 AND (%s_manual = false OR $6)
		RETURNING `+chunkColumns, column, column, column, column)

	chunk, err := scanChunk(r.pool.QueryRow(ctx, sql, contentID, index, value, time.Now().UTC(), manuallyEdited, overwriteManual))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the chunk is missing or the guard refused the write
			if _, getErr := r.GetByIndex(ctx, contentID, index); getErr != nil {
				return nil, getErr
			}
			return nil, ErrManuallyEdited
		}
		return nil, common.HandlePostgreSQLError(err, "failed to update chunk field")
	}
	return chunk, nil
}

// Delete deletes all chunks for a content id
func (r *chunkRepository) Delete(ctx context.Context, contentID string) error {
	sql := "DELETE FROM chunks WHERE content_id = $1"
	_, err := r.pool.Exec(ctx, sql, contentID)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete chunks")
	}
	return nil
}

// scanChunk reads one chunk row including all AI field triples
func scanChunk(row pgx.Row) (*model.Chunk, error) {
	var chunk model.Chunk
	fields := map[model.Field]*model.FieldValue{
		model.FieldTitle:     {},
		model.FieldSummary:   {},
		model.FieldKeyPoints: {},
		model.FieldTopics:    {},
	}

	err := row.Scan(
		&chunk.ContentID,
		&chunk.ChunkIndex,
		&chunk.Text,
		&chunk.WordCount,
		&chunk.SentenceCount,
		&chunk.OverlapWords,
		&fields[model.FieldTitle].Value,
		&fields[model.FieldTitle].GeneratedAt,
		&fields[model.FieldTitle].ManuallyEdited,
		&fields[model.FieldSummary].Value,
		&fields[model.FieldSummary].GeneratedAt,
		&fields[model.FieldSummary].ManuallyEdited,
		&fields[model.FieldKeyPoints].Value,
		&fields[model.FieldKeyPoints].GeneratedAt,
		&fields[model.FieldKeyPoints].ManuallyEdited,
		&fields[model.FieldTopics].Value,
		&fields[model.FieldTopics].GeneratedAt,
		&fields[model.FieldTopics].ManuallyEdited,
		&chunk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	chunk.Fields = make(map[model.Field]model.FieldValue, len(fields))
	for f, v := range fields {
		chunk.Fields[f] = *v
	}
	return &chunk, nil
}
