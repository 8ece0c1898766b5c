package service

import (
	"context"
	"errors"
	"time"

	"github.com/pancakepress/posts-api/internal/auth"
	"github.com/pancakepress/posts-api/internal/domain"
	"github.com/pancakepress/posts-api/internal/repository"
)

// ErrInvalidCredentials is returned when the email or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer signs access tokens for a subject.
type TokenIssuer interface {
	Sign(subject string) (string, time.Time, error)
}

// AuthService coordinates signup and login flows.
type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	hasher auth.PasswordHasher
	now    func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, hasher auth.PasswordHasher) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, now: time.Now}
}

// Signup registers a user and returns a token for it.
func (s *AuthService) Signup(ctx context.Context, fullname, email, password string) (*domain.AccessToken, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user.Email)
}

// Login checks the credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issue(user.Email)
}

func (s *AuthService) issue(subject string) (*domain.AccessToken, error) {
	token, exp, err := s.tokens.Sign(subject)
	if err != nil {
		return nil, err
	}
	return &domain.AccessToken{Subject: subject, Token: token, ExpiresAt: exp}, nil
}
