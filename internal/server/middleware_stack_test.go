package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"collegeconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func TestGlobalLimiter_KeepsCORSAndEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.srv.config.RateLimitPerMinute = 3
	app := env.srv.NewApp()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Origin", testOrigin)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", testOrigin)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, models.CodeRateLimited, body.Code)
}

func TestPreflight_BypassesLimiter(t *testing.T) {
	env := newTestEnv(t)
	env.srv.config.RateLimitPerMinute = 1
	app := env.srv.NewApp()

	first, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events", nil), -1)
	require.NoError(t, err)
	_ = first.Body.Close()
	limited, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/events", nil), -1)
	require.NoError(t, err)
	_ = limited.Body.Close()
	require.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts/1/vote", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_UnknownOriginGetsNoGrant(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-campus-42")
	echoed, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = echoed.Body.Close() }()
	assert.Equal(t, "req-campus-42", echoed.Header.Get(fiber.HeaderXRequestID))
}

func readiness(t *testing.T, app *fiber.App) (int, map[string]string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	body.Checks["overall"] = body.Status
	return resp.StatusCode, body.Checks
}

func TestReadiness(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t)
		status, checks := readiness(t, env.app)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "healthy", checks["redis"])
	})

	t.Run("redis down", func(t *testing.T) {
		env := newTestEnv(t)
		env.mr.Close()
		status, checks := readiness(t, env.app)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "unhealthy", checks["redis"])
		assert.Equal(t, "healthy", checks["database"])
	})

	t.Run("redis not configured", func(t *testing.T) {
		env := newTestEnv(t)
		env.srv.redis = nil
		status, checks := readiness(t, env.app)
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Equal(t, "unavailable", checks["redis"])
		assert.Equal(t, "unhealthy", checks["overall"])
	})
}
