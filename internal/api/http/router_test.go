package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pancakepress/posts-api/internal/api/http/handlers"
	"github.com/pancakepress/posts-api/internal/auth"
	"github.com/pancakepress/posts-api/internal/events"
	"github.com/pancakepress/posts-api/internal/observability"
	"github.com/pancakepress/posts-api/internal/persistence"
	"github.com/pancakepress/posts-api/internal/repository"
	"github.com/pancakepress/posts-api/internal/service"
	"github.com/pancakepress/posts-api/internal/validation"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{now: time.Unix(1_700_000_000, 0)}

	tm, err := auth.NewTokenManager(
		auth.SigningConfig{Secret: []byte("test-secret"), Algorithm: "HS256"},
		600*time.Second,
		auth.WithClock(func() time.Time { return s.now }),
	)
	require.NoError(t, err)
	s.tokens = tm

	logger := zap.NewNop()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	v := validation.New()

	postService := service.NewPostService(repository.NewMemoryPostRepository(repository.DefaultPosts()...), events.NewInMemoryDispatcher(), logger)
	authService := service.NewAuthService(repository.NewMemoryUserRepository(), tm, auth.NewPasswordHasher(bcrypt.MinCost))

	s.app = fiber.New()
	RegisterMiddlewares(s.app, logger, metrics, time.Second)
	RegisterRoutes(s.app, RouteConfig{
		Health:   handlers.NewHealthHandler("posts-api", "test", map[string]handlers.Pinger{"postgres": &persistence.Postgres{}}),
		Posts:    handlers.NewPostsHandler(postService, v, logger),
		Users:    handlers.NewUsersHandler(authService, v),
		Guard:    auth.NewGuard(auth.NewBearerExtractor(), tm, logger, auth.WithRecorder(metrics)),
		Gatherer: reg,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func errorField(body map[string]any, field string) any {
	errObj, _ := body["error"].(map[string]any)
	return errObj[field]
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Welcome to your blog!.", body["message"])

	status, body = s.do(t, http.MethodGet, "/posts", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = s.do(t, http.MethodGet, "/posts/1", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pancake", body["data"].(map[string]any)["title"])

	status, body = s.do(t, http.MethodGet, "/posts/99", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "No such post with the supplied ID.", errorField(body, "message"))

	status, _ = s.do(t, http.MethodGet, "/posts/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorField(body, "code"))
}

func TestProtectedRoutesRejectWithoutToken(t *testing.T) {
	s := newTestServer(t)
	post := map[string]string{"title": "Waffle", "content": "crispy"}

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/posts"},
		{http.MethodPut, "/posts/1"},
		{http.MethodDelete, "/posts/1"},
	} {
		status, body := s.do(t, tc.method, tc.path, "", post)
		assert.Equal(t, http.StatusForbidden, status, tc.path)
		assert.Equal(t, "Invalid authorization code.", errorField(body, "message"))
	}

	status, body := s.do(t, http.MethodGet, "/posts/1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pancake", body["data"].(map[string]any)["title"])
}

func TestSignupLoginAndCRUD(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/user/signup", "", map[string]string{
		"fullname": "Test User", "email": "u@example.com", "password": "weakpassword",
	})
	require.Equal(t, http.StatusCreated, status)
	token := body["data"].(map[string]any)["access_token"].(string)
	require.NotEmpty(t, token)

	status, _ = s.do(t, http.MethodPost, "/user/signup", "", map[string]string{
		"fullname": "Test User", "email": "u@example.com", "password": "weakpassword",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email": "u@example.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong login details!", errorField(body, "message"))

	status, body = s.do(t, http.MethodPost, "/user/login", "", map[string]string{
		"email": "u@example.com", "password": "weakpassword",
	})
	require.Equal(t, http.StatusOK, status)
	token = body["data"].(map[string]any)["access_token"].(string)

	status, body = s.do(t, http.MethodPost, "/posts", token, map[string]string{"title": "Waffle", "content": "crispy"})
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 2, body["data"].(map[string]any)["id"])

	status, body = s.do(t, http.MethodPost, "/posts", token, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorField(body, "code"))

	status, _ = s.do(t, http.MethodPut, "/posts/2", token, map[string]string{"title": "Waffle", "content": "soft"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPut, "/posts/42", token, map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodDelete, "/posts/2", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, "/posts/2", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.tokens.Sign("u@example.com")
	require.NoError(t, err)

	status, _ := s.do(t, http.MethodDelete, "/posts/1", token, nil)
	require.Equal(t, http.StatusOK, status)

	s.now = s.now.Add(601 * time.Second)
	status, body := s.do(t, http.MethodPost, "/posts", token, map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INVALID_TOKEN", errorField(body, "code"))
	assert.Equal(t, "Invalid token or expired token.", errorField(body, "message"))
}

func TestWrongSchemeRejected(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.tokens.Sign("u@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/posts/1", nil)
	req.Header.Set("Authorization", "Basic "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	status, _ := s.do(t, http.MethodGet, "/posts/1", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["dependencies"].(map[string]any)["postgres"])

	_, _ = s.do(t, http.MethodPost, "/posts", "", map[string]string{"title": "t", "content": "c"})

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `posts_api_auth_decisions_total{outcome="missing_credential"} 1`)
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(observability.RequestIDHeader, "abc-123")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(observability.RequestIDHeader))

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))
}
