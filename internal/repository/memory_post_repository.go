package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pancakepress/posts-api/internal/domain"
)

type memoryPostRepository struct {
	mu     sync.RWMutex
	posts  map[int64]domain.Post
	nextID int64
	now    func() time.Time
}

// NewMemoryPostRepository returns an in-process store seeded with the given posts.
func NewMemoryPostRepository(seed ...domain.Post) PostRepository {
	r := &memoryPostRepository{
		posts:  make(map[int64]domain.Post, len(seed)),
		nextID: 1,
		now:    time.Now,
	}
	for _, p := range seed {
		r.posts[p.ID] = p
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
	}
	return r
}

// DefaultPosts is the starter content served on a fresh in-memory store.
func DefaultPosts() []domain.Post {
	return []domain.Post{{ID: 1, Title: "Pancake", Content: "Lorem Ipsum ..."}}
}

func (r *memoryPostRepository) List(_ context.Context) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r *memoryPostRepository) GetByID(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memoryPostRepository) Create(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	post.ID = r.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	r.nextID++
	r.posts[post.ID] = *post
	return nil
}

func (r *memoryPostRepository) Update(_ context.Context, id int64, update domain.PostUpdate) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Title = update.Title
	p.Content = update.Content
	p.UpdatedAt = r.now()
	r.posts[id] = p
	return &p, nil
}

func (r *memoryPostRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}
