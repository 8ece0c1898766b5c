package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/pancakepress/posts-api/pkg/util"
)

const (
	subjectKey   = "auth_subject"
	bearerScheme = "Bearer"
)

// AuthErrorKind classifies why a request was rejected.
type AuthErrorKind int

const (
	AuthMissing AuthErrorKind = iota + 1
	AuthInvalidScheme
	AuthInvalidOrExpired
)

// String returns the outcome label used in logs and metrics.
func (k AuthErrorKind) String() string {
	switch k {
	case AuthMissing:
		return "missing_credential"
	case AuthInvalidScheme:
		return "invalid_scheme"
	case AuthInvalidOrExpired:
		return "invalid_token"
	default:
		return "unknown"
	}
}

// Code is the machine readable code sent to clients.
func (k AuthErrorKind) Code() string {
	switch k {
	case AuthMissing:
		return "MISSING_CREDENTIAL"
	case AuthInvalidScheme:
		return "INVALID_SCHEME"
	default:
		return "INVALID_TOKEN"
	}
}

// Message is the client facing rejection reason.
func (k AuthErrorKind) Message() string {
	switch k {
	case AuthMissing:
		return "Invalid authorization code."
	case AuthInvalidScheme:
		return "Invalid authentication scheme."
	default:
		return "Invalid token or expired token."
	}
}

// AuthError is a rejected authorization decision.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TokenVerifier validates a raw token string.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// DecisionRecorder counts authorization outcomes.
type DecisionRecorder interface {
	RecordAuthDecision(outcome string)
}

// GuardOption customizes a Guard.
type GuardOption func(*Guard)

// WithRecorder reports every decision to r.
func WithRecorder(r DecisionRecorder) GuardOption {
	return func(g *Guard) {
		g.recorder = r
	}
}

// Guard admits or rejects requests to protected operations.
type Guard struct {
	extractor Extractor
	verifier  TokenVerifier
	logger    *zap.Logger
	recorder  DecisionRecorder
}

// NewGuard composes an extractor and a verifier.
func NewGuard(extractor Extractor, verifier TokenVerifier, logger *zap.Logger, opts ...GuardOption) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{extractor: extractor, verifier: verifier, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit returns the authenticated subject or an *AuthError. The first failing step wins.
func (g *Guard) Admit(md RequestMetadata) (string, error) {
	cred, err := g.extractor.Extract(md)
	if err != nil {
		return "", &AuthError{Kind: AuthMissing, Err: err}
	}

	if cred.Scheme != bearerScheme {
		return "", &AuthError{Kind: AuthInvalidScheme}
	}

	claims, err := g.verifier.Verify(cred.Value)
	if err != nil {
		return "", &AuthError{Kind: AuthInvalidOrExpired, Err: err}
	}

	return claims.Subject, nil
}

// Handle enforces authentication for protected routes.
func (g *Guard) Handle(c *fiber.Ctx) error {
	subject, err := g.Admit(c)
	if err != nil {
		var authErr *AuthError
		if !errors.As(err, &authErr) {
			return apperrors.NewInternalError(err)
		}
		g.record(authErr.Kind.String())
		g.logger.Debug("request rejected",
			zap.String("path", c.Path()),
			zap.String("reason", authErr.Kind.String()),
			zap.NamedError("cause", authErr.Err),
		)
		return apperrors.NewForbidden(authErr.Kind.Code(), authErr.Kind.Message())
	}

	g.record("admitted")
	c.Locals(subjectKey, subject)
	return c.Next()
}

func (g *Guard) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthDecision(outcome)
	}
}

// SubjectFromContext retrieves the subject admitted by the guard.
func SubjectFromContext(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(subjectKey).(string)
	return subject, ok && subject != ""
}
