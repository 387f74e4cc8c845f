package content

import (
	"context"
	"errors"

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

// contentRepository implements Repository using PostgreSQL
type contentRepository struct {
	pool Pool
}

// NewRepository creates a new instance of Repository
func NewRepository(pool Pool) Repository {
	return &contentRepository{
		pool: pool,
	}
}

// Create creates a new content record
func (r *contentRepository) Create(ctx context.Context, content *model.Content) error {
	sql := `INSERT INTO contents (id, kind, title, source_url, language)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, sql,
		content.ID,
		content.Kind,
		content.Title,
		content.SourceURL,
		content.Language,
	).Scan(&content.CreatedAt)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to create content")
	}
	return nil
}

// GetByID retrieves a content item by its ID
func (r *contentRepository) GetByID(ctx context.Context, id string) (*model.Content, error) {
	sql := `SELECT id, kind, title, source_url, language, created_at
		FROM contents WHERE id = $1`
	row := r.pool.QueryRow(ctx, sql, id)

	var content model.Content
	err := row.Scan(
		&content.ID,
		&content.Kind,
		&content.Title,
		&content.SourceURL,
		&content.Language,
		&content.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "content not found")
		}
		return nil, common.HandlePostgreSQLError(err, "failed to get content")
	}
	return &content, nil
}

// List retrieves content items with pagination
func (r *contentRepository) List(ctx context.Context, limit, offset int) ([]*model.Content, error) {
	sql := `SELECT id, kind, title, source_url, language, created_at
		FROM contents ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, common.HandlePostgreSQLError(err, "failed to list contents")
	}
	defer rows.Close()

	var contents []*model.Content
	for rows.Next() {
		var content model.Content
		err := rows.Scan(
			&content.ID,
			&content.Kind,
			&content.Title,
			&content.SourceURL,
			&content.Language,
			&content.CreatedAt,
		)
		if err != nil {
			return nil, common.HandlePostgreSQLError(err, "failed to scan content")
		}
		contents = append(contents, &content)
	}

	return contents, nil
}

// Delete deletes a content item by ID
func (r *contentRepository) Delete(ctx context.Context, id string) error {
	sql := "DELETE FROM contents WHERE id = $1"
	_, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return common.HandlePostgreSQLError(err, "failed to delete content")
	}
	return nil
}
