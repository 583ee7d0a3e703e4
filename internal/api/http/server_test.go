package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshliford/amplify-guitar/internal/api/http/handlers"
	"github.com/joshliford/amplify-guitar/internal/auth"
	"github.com/joshliford/amplify-guitar/internal/events"
	"github.com/joshliford/amplify-guitar/internal/observability"
	"github.com/joshliford/amplify-guitar/internal/repository"
	"github.com/joshliford/amplify-guitar/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	app     *fiber.App
	metrics *fiber.App
	tokens  *auth.TokenCodec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens, err := auth.NewTokenCodec(testSecret, time.Hour)
	require.NoError(t, err)

	users := repository.NewMemoryUserRepository()
	dispatcher := events.NewInMemoryDispatcher()
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: bcrypt.MinCost,
	})
	progress := service.NewProgressService(users, dispatcher, logger)

	app := NewApp(ServerConfig{
		AppName:        "amplify-test",
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second,
		Routes: RouteConfig{
			Health: handlers.NewHealthHandler("amplify-test", "test", handlers.Dependency{Name: "redis"}),
			Auth:   handlers.NewAuthHandler(authService),
			Users:  handlers.NewUsersHandler(progress),
			Gate:   auth.NewGate(tokens, auth.NewIdentityResolver(users), logger, metrics),
			Policy: auth.DefaultPolicy(),
		},
	})
	return &testServer{app: app, metrics: NewMetricsApp("amplify-test", metrics), tokens: tokens}
}

func (s *testServer) call(t *testing.T, method, path, token string, body any) (int, map[string]any) {
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
	if len(raw) > 0 && resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	status, body := s.call(t, nethttp.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "practice-daily", "firstName": "Jimi", "lastName": "Hendrix", "displayName": "jimi",
	})
	require.Equal(t, nethttp.StatusCreated, status, body)
	return dig(body, "data", "auth", "token").(string)
}

func dig(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		next, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = next[key]
	}
	return cur
}

func TestAPI_RegisterLoginAndProfile(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jimi@example.com")

	status, body := s.call(t, nethttp.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jimi@example.com", "password": "practice-daily",
	})
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, "Bearer", dig(body, "data", "auth", "tokenType"))
	token := dig(body, "data", "auth", "token").(string)
	assert.True(t, s.tokens.IsValid(token, "jimi@example.com"))

	status, body = s.call(t, nethttp.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, "jimi@example.com", dig(body, "data", "email"))
	assert.Nil(t, dig(body, "data", "passwordHash"))

	status, body = s.call(t, nethttp.MethodPost, "/api/users/me/xp", token, map[string]int{"amount": 160})
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, 2.0, dig(body, "data", "currentLevel"))
	assert.Equal(t, 10.0, dig(body, "data", "currentXp"))

	status, body = s.call(t, nethttp.MethodPost, "/api/users/me/streak", token, nil)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, 1.0, dig(body, "data", "currentStreak"))

	status, _ = s.call(t, nethttp.MethodDelete, "/api/users/me", token, nil)
	assert.Equal(t, nethttp.StatusNoContent, status)

	status, body = s.call(t, nethttp.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status, "token for a deleted user carries no identity")
	assert.Equal(t, "UNAUTHORIZED", dig(body, "error", "code"))
}

func TestAPI_ProtectedRoutesNeedIdentity(t *testing.T) {
	s := newTestServer(t)
	valid := s.register(t, "jimi@example.com")

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token"},
		{name: "garbage token", token: "garbage"},
		{name: "truncated token", token: valid[:len(valid)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.call(t, nethttp.MethodGet, "/api/users/me", tt.token, nil)
			assert.Equal(t, nethttp.StatusUnauthorized, status)
			assert.Equal(t, "authentication required", dig(body, "error", "message"))
		})
	}
}

func TestAPI_PublicRoutesIgnoreBadTokens(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jimi@example.com")

	status, body := s.call(t, nethttp.MethodPost, "/api/auth/login", "garbage", map[string]string{
		"email": "jimi@example.com", "password": "practice-daily",
	})
	assert.Equal(t, nethttp.StatusOK, status, body)

	status, body = s.call(t, nethttp.MethodGet, "/health/live", "garbage", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.call(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "disabled", dig(body, "dependencies", "redis"))
}

func TestAPI_LoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jimi@example.com")

	status, body := s.call(t, nethttp.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "jimi@example.com", "password": "wrong-password",
	})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", dig(body, "error", "message"))

	status, _ = s.call(t, nethttp.MethodPost, "/api/auth/login", "", map[string]string{"email": "jimi@example.com"})
	assert.Equal(t, nethttp.StatusBadRequest, status)

	status, _ = s.call(t, nethttp.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "jimi@example.com", "password": "practice-daily", "firstName": "Jimi", "lastName": "Hendrix", "displayName": "j",
	})
	assert.Equal(t, nethttp.StatusConflict, status)
}

func TestAPI_UnlistedPathsAreDenied(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "jimi@example.com")

	status, body := s.call(t, nethttp.MethodGet, "/admin", token, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", dig(body, "error", "code"))

	status, _ = s.call(t, nethttp.MethodGet, "/api/nothing-here", token, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func (s *testServer) scrape(t *testing.T) (int, string) {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := s.metrics.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestAPI_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.call(t, nethttp.MethodGet, "/api/users/me", "garbage", nil)

	status, body := s.scrape(t)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Contains(t, body, `amplify_auth_gate_outcomes_total{outcome="malformed"} 1`)
	assert.Contains(t, body, `amplify_http_errors_total{code="UNAUTHORIZED",method="GET",route="/"} 1`)
}

func TestAPI_MetricsNotOnPublicPort(t *testing.T) {
	s := newTestServer(t)

	status, body := s.call(t, nethttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", dig(body, "error", "code"))
}

func TestAPI_MetricsSurviveManyDistinctPaths(t *testing.T) {
	s := newTestServer(t)

	const n = 50
	for i := 0; i < n; i++ {
		status, _ := s.call(t, nethttp.MethodGet, fmt.Sprintf("/random-%d", i), "", nil)
		require.Equal(t, nethttp.StatusForbidden, status)
	}

	status, body := s.scrape(t)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.NotContains(t, body, "random-")
	assert.Contains(t, body, fmt.Sprintf(`amplify_http_errors_total{code="FORBIDDEN",method="GET",route="/"} %d`, n))
	assert.Contains(t, body, fmt.Sprintf(`amplify_http_requests_total{method="GET",route="/",status="403"} %d`, n))
}
