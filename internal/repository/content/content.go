package content

import (
	"context"

	"media-digest/internal/model"
)

// Repository defines operations for Content persistence
type Repository interface {
	Create(ctx context.Context, content *model.Content) error
	GetByID(ctx context.Context, id string) (*model.Content, error)
	List(ctx context.Context, limit, offset int) ([]*model.Content, error)
	Delete(ctx context.Context, id string) error
}
