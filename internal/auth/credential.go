package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrMissingCredential is returned when the request carries no authorization metadata.
var ErrMissingCredential = errors.New("missing credential")

// RequestMetadata exposes request headers. *fiber.Ctx satisfies it.
type RequestMetadata interface {
	Get(key string, defaultValue ...string) string
}

// Credential is the scheme and value pair of an Authorization header.
type Credential struct {
	Scheme string
	Value  string
}

// Extractor pulls a credential out of request metadata.
type Extractor interface {
	Extract(md RequestMetadata) (Credential, error)
}

// BearerExtractor reads the Authorization header. It does not judge the value.
type BearerExtractor struct {
	Header string
}

// NewBearerExtractor returns an extractor for the standard Authorization header.
func NewBearerExtractor() BearerExtractor {
	return BearerExtractor{Header: fiber.HeaderAuthorization}
}

// Extract splits the header on its first space into scheme and value.
func (e BearerExtractor) Extract(md RequestMetadata) (Credential, error) {
	header := e.Header
	if header == "" {
		header = fiber.HeaderAuthorization
	}

	raw := strings.TrimSpace(md.Get(header))
	if raw == "" {
		return Credential{}, ErrMissingCredential
	}

	scheme, value, _ := strings.Cut(raw, " ")
	return Credential{Scheme: scheme, Value: strings.TrimSpace(value)}, nil
}
