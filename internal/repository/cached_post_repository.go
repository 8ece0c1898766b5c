package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pancakepress/posts-api/internal/domain"
)

const postCachePrefix = "posts:"

type cachedPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// cachedPostRepository serves GetByID from redis and drops entries on writes.
// Cache failures are logged and fall through to the backing repository.
type cachedPostRepository struct {
	next   PostRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedPostRepository wraps next with a redis read-through cache.
func NewCachedPostRepository(next PostRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) PostRepository {
	return &cachedPostRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func postCacheKey(id int64) string {
	return postCachePrefix + strconv.FormatInt(id, 10)
}

func (r *cachedPostRepository) List(ctx context.Context) ([]domain.Post, error) {
	return r.next.List(ctx)
}

func (r *cachedPostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	raw, err := r.client.Get(ctx, postCacheKey(id)).Bytes()
	switch {
	case err == nil:
		var cp cachedPost
		if jsonErr := json.Unmarshal(raw, &cp); jsonErr == nil {
			return &domain.Post{
				ID:        cp.ID,
				Title:     cp.Title,
				Content:   cp.Content,
				CreatedAt: cp.CreatedAt,
				UpdatedAt: cp.UpdatedAt,
			}, nil
		}
		r.logger.Warn("discarding unreadable cached post", zap.Int64("post_id", id))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("post cache read failed", zap.Int64("post_id", id), zap.Error(err))
	}

	post, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, post)
	return post, nil
}

func (r *cachedPostRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.next.Create(ctx, post)
}

func (r *cachedPostRepository) Update(ctx context.Context, id int64, update domain.PostUpdate) (*domain.Post, error) {
	post, err := r.next.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return post, nil
}

func (r *cachedPostRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *cachedPostRepository) store(ctx context.Context, post *domain.Post) {
	payload, err := json.Marshal(cachedPost{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, postCacheKey(post.ID), payload, r.ttl).Err(); err != nil {
		r.logger.Warn("post cache write failed", zap.Int64("post_id", post.ID), zap.Error(err))
	}
}

func (r *cachedPostRepository) invalidate(ctx context.Context, id int64) {
	if err := r.client.Del(ctx, postCacheKey(id)).Err(); err != nil {
		r.logger.Warn("post cache invalidation failed", zap.Int64("post_id", id), zap.Error(err))
	}
}
