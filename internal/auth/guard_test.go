package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/pancakepress/posts-api/pkg/util"
)

type countingRecorder struct {
	outcomes map[string]int
}

func (r *countingRecorder) RecordAuthDecision(outcome string) {
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

type stubVerifier struct {
	calls int
	err   error
}

func (s *stubVerifier) Verify(token string) (*Claims, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c := &Claims{}
	c.Subject = token
	return c, nil
}

func TestGuardAdmit(t *testing.T) {
	clock := newFakeClock()
	tm := newTestManager(t, "secret", clock)
	token, _, err := tm.Sign("u@example.com")
	require.NoError(t, err)

	guard := NewGuard(NewBearerExtractor(), tm, zap.NewNop())

	tests := []struct {
		name     string
		md       headers
		wantKind AuthErrorKind
	}{
		{"missing", headers{}, AuthMissing},
		{"basic scheme with valid token", headers{"Authorization": "Basic " + token}, AuthInvalidScheme},
		{"lowercase bearer", headers{"Authorization": "bearer " + token}, AuthInvalidScheme},
		{"garbage token", headers{"Authorization": "Bearer not-a-jwt"}, AuthInvalidOrExpired},
		{"empty token", headers{"Authorization": "Bearer"}, AuthInvalidOrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := guard.Admit(tt.md)
			assert.Empty(t, subject)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.wantKind, authErr.Kind)
		})
	}

	t.Run("valid", func(t *testing.T) {
		subject, err := guard.Admit(headers{"Authorization": "Bearer " + token})
		require.NoError(t, err)
		assert.Equal(t, "u@example.com", subject)
	})
}

func TestGuardShortCircuits(t *testing.T) {
	verifier := &stubVerifier{}
	guard := NewGuard(NewBearerExtractor(), verifier, nil)

	_, err := guard.Admit(headers{})
	require.Error(t, err)
	_, err = guard.Admit(headers{"Authorization": "Basic abc"})
	require.Error(t, err)

	assert.Zero(t, verifier.calls)
}

func TestGuardKeepsVerifyCause(t *testing.T) {
	guard := NewGuard(NewBearerExtractor(), &stubVerifier{err: ErrTokenExpired}, nil)

	_, err := guard.Admit(headers{"Authorization": "Bearer tok"})
	assert.ErrorIs(t, err, ErrTokenExpired)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthInvalidOrExpired, authErr.Kind)
}

func TestGuardAdmitAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	tm := newTestManager(t, "secret", clock)
	guard := NewGuard(NewBearerExtractor(), tm, nil)

	token, _, err := tm.Sign("u@example.com")
	require.NoError(t, err)
	md := headers{"Authorization": "Bearer " + token}

	subject, err := guard.Admit(md)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", subject)

	clock.Advance(601 * time.Second)

	_, err = guard.Admit(md)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, AuthInvalidOrExpired, authErr.Kind)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func newGuardedApp(guard *Guard, calls *int) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
		},
	})
	app.Post("/posts", guard.Handle, func(c *fiber.Ctx) error {
		*calls++
		subject, _ := SubjectFromContext(c)
		return c.JSON(fiber.Map{"subject": subject})
	})
	return app
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestGuardHandle(t *testing.T) {
	clock := newFakeClock()
	tm := newTestManager(t, "secret", clock)
	token, _, err := tm.Sign("u@example.com")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantCode    string
		wantMessage string
		wantCalls   int
		wantOutcome string
	}{
		{"missing", "", http.StatusForbidden, "MISSING_CREDENTIAL", "Invalid authorization code.", 0, "missing_credential"},
		{"wrong scheme", "Basic " + token, http.StatusForbidden, "INVALID_SCHEME", "Invalid authentication scheme.", 0, "invalid_scheme"},
		{"bad token", "Bearer " + token + "x", http.StatusForbidden, "INVALID_TOKEN", "Invalid token or expired token.", 0, "invalid_token"},
		{"admitted", "Bearer " + token, http.StatusOK, "", "", 1, "admitted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			recorder := &countingRecorder{}
			app := newGuardedApp(NewGuard(NewBearerExtractor(), tm, zap.NewNop(), WithRecorder(recorder)), &calls)

			req := httptest.NewRequest(http.MethodPost, "/posts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, 1, recorder.outcomes[tt.wantOutcome])

			if tt.wantCode != "" {
				var body errorBody
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Error.Code)
				assert.Equal(t, tt.wantMessage, body.Error.Message)
				return
			}

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, "u@example.com", body["subject"])
		})
	}
}

func TestGuardHandleEndToEndExpiry(t *testing.T) {
	clock := newFakeClock()
	tm := newTestManager(t, "secret", clock)
	calls := 0
	app := newGuardedApp(NewGuard(NewBearerExtractor(), tm, nil), &calls)

	token, _, err := tm.Sign("u@example.com")
	require.NoError(t, err)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/posts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, send())
	clock.Advance(601 * time.Second)
	assert.Equal(t, http.StatusForbidden, send())
	assert.Equal(t, 1, calls)
}

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{Kind: AuthInvalidOrExpired, Err: errors.New("boom")}
	assert.Equal(t, "invalid_token: boom", err.Error())
	assert.Equal(t, "invalid_scheme", (&AuthError{Kind: AuthInvalidScheme}).Error())
}
