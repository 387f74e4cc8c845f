package chunk

import (
	"context"

	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
)

// ErrManuallyEdited is returned by UpdateField when the target field carries
// a manual edit and the caller did not request an overwrite.
var ErrManuallyEdited = apperrors.New(apperrors.CodeConflict, "field is manually edited")

// Repository defines operations for Chunk persistence
type Repository interface {
	// CreateBatch inserts all chunks for a content id in one transaction.
	// The insert is an upsert keyed on (content_id, chunk_index), so
	// re-running extraction never duplicates chunks and readers observe
	// the chunk set all-at-once or not at all.
	CreateBatch(ctx context.Context, contentID string, drafts []model.ChunkDraft) error
	GetByContentID(ctx context.Context, contentID string) ([]*model.Chunk, error)
	GetByIndex(ctx context.Context, contentID string, index int) (*model.Chunk, error)
	CountByContentID(ctx context.Context, contentID string) (int, error)
	// UpdateField writes a single AI field. overwriteManual must be true to
	// replace a manually edited value; otherwise ErrManuallyEdited is
	// returned and the stored value is untouched.
	UpdateField(ctx context.Context, contentID string, index int, field model.Field, value string, manuallyEdited, overwriteManual bool) (*model.Chunk, error)
	Delete(ctx context.Context, contentID string) error
}
