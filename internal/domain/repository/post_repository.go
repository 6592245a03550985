package repository

import (
	"context"
	"time"

	"github.com/tryohq/tryo-api/internal/domain/entity"
)

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	Field       entity.ProjectField
	PostedAfter time.Time
	Limit       int
}

// PostRepository is the persistence contract for project posts.
type PostRepository interface {
	Create(ctx context.Context, post *entity.ProjectPost) error
	GetByID(ctx context.Context, id string) (*entity.ProjectPost, error)
	// List returns posts matching f ordered by posted_date descending.
	List(ctx context.Context, f PostFilter) ([]entity.ProjectPost, error)
	// SearchText is the fallback search used when Elasticsearch is not
	// configured: case-insensitive substring match over name and description.
	SearchText(ctx context.Context, q string, limit int) ([]entity.ProjectPost, error)
}
