package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/pancakepress/posts-api/internal/domain"
	"github.com/pancakepress/posts-api/internal/events"
	"github.com/pancakepress/posts-api/internal/repository"
)

// PostService implements the post CRUD operations.
type PostService struct {
	posts      repository.PostRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewPostService builds the service. dispatcher may be nil.
func NewPostService(posts repository.PostRepository, dispatcher events.Dispatcher, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, dispatcher: dispatcher, logger: logger}
}

// List returns every post ordered by id.
func (s *PostService) List(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

// Get returns a single post.
func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Create stores a new post on behalf of actor.
func (s *PostService) Create(ctx context.Context, actor, title, content string) (*domain.Post, error) {
	post := &domain.Post{Title: title, Content: content}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewPostEvent(events.EventPostCreated, post.ID, actor))
	return post, nil
}

// Update replaces the title and content of a post.
func (s *PostService) Update(ctx context.Context, actor string, id int64, update domain.PostUpdate) (*domain.Post, error) {
	post, err := s.posts.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewPostEvent(events.EventPostUpdated, id, actor))
	return post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, actor string, id int64) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.NewPostEvent(events.EventPostDeleted, id, actor))
	return nil
}

func (s *PostService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("post event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
