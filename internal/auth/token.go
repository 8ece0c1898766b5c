package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unexpected methods.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned only for correctly signed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// SigningConfig is the secret and algorithm pair shared by signing and verification.
type SigningConfig struct {
	Secret    []byte
	Algorithm string
}

// ConfigError reports an unusable signing configuration. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid signing config: %s %s", e.Field, e.Reason)
}

// Claims describes the JWT payload: the subject and its expiry.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and checking expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithLeeway tolerates clock skew when checking expiry. Zero means a strict comparison.
func WithLeeway(leeway time.Duration) TokenOption {
	return func(tm *TokenManager) {
		if leeway > 0 {
			tm.leeway = leeway
		}
	}
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenManager builds a manager from an explicit signing configuration.
func NewTokenManager(cfg SigningConfig, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if len(cfg.Secret) == 0 {
		return nil, &ConfigError{Field: "secret", Reason: "is empty"}
	}
	method, ok := signingMethods[cfg.Algorithm]
	if !ok {
		return nil, &ConfigError{Field: "algorithm", Reason: fmt.Sprintf("%q is not supported", cfg.Algorithm)}
	}
	if ttl <= 0 {
		return nil, &ConfigError{Field: "ttl", Reason: "must be positive"}
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	tm := &TokenManager{
		secret: secret,
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Sign builds and signs a JWT for the subject.
func (tm *TokenManager) Sign(subject string) (string, time.Time, error) {
	expiresAt := tm.now().Add(tm.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(tm.method, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks the signature first, then expiry, and returns the claims.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	}
	if tm.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(tm.leeway))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
