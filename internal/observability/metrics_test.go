package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joshliford/amplify-guitar/internal/config"
)

func TestMetrics_RecordsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/users/me", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/api/users/me", "GET", 200, 5*time.Millisecond)
	m.RecordError("/api/users/me", "GET", "UNAUTHORIZED")
	m.RecordAuthOutcome("established")
	m.RecordAuthOutcome("malformed")
	m.RecordAuthOutcome("malformed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/users/me", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/users/me", "GET", "UNAUTHORIZED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("established")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordAuthOutcome("none")
	})
}

func TestMetrics_HandlerAndRequestLogger(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/metrics", m.Handler())
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping/42", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/ping/:id", "GET", "200")),
		"requests are labelled by route template")

	m.RecordAuthOutcome("expired")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `amplify_auth_gate_outcomes_total{outcome="expired"} 1`)
	assert.Contains(t, string(body), "amplify_http_requests_total")
}

func TestRequestLogger_UnroutedPathsShareOneLabel(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return nil
	})
	app.Get("/ping/:id", func(c *fiber.Ctx) error { return c.SendString("pong") })

	for _, path := range []string{"/nope-1", "/nope-22", "/nope-333"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("/", "GET", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
