package repository

import (
	"context"
	"errors"

	"github.com/pancakepress/posts-api/internal/domain"
)

// ErrNotFound is returned when a post does not exist.
var ErrNotFound = errors.New("not found")

// PostRepository defines persistence access for posts.
type PostRepository interface {
	List(ctx context.Context) ([]domain.Post, error)
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, id int64, update domain.PostUpdate) (*domain.Post, error)
	Delete(ctx context.Context, id int64) error
}
