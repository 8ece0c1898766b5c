package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pancakepress/posts-api/internal/domain"
)

// ErrUserExists is returned when an email is already registered.
var ErrUserExists = errors.New("user already exists")

// UserRepository defines access to registered users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// memoryUserRepository keeps users for the lifetime of the process only.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an empty in-process user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]domain.User)}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(user.Email)
	if _, exists := r.users[key]; exists {
		return ErrUserExists
	}
	r.users[key] = *user
	return nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[emailKey(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}
