package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true).With("component", "test")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(42))
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, float64(42), rec["user_id"])
	assert.Equal(t, "test", rec["component"])
}

func TestContextMiddleware_PropagatesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.UserContext().Value(RequestIDKey).(string)
		return c.SendString(rid)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	assert.Equal(t, "abc-123", body.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestStructuredLogger_LevelsAndQuietPaths(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger(&buf, true)
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		if c.Params("id") == "0" {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	records := func() []map[string]any {
		var out []map[string]any
		dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
		for dec.More() {
			var rec map[string]any
			require.NoError(t, dec.Decode(&rec))
			out = append(out, rec)
		}
		buf.Reset()
		return out
	}

	for _, path := range []string{"/health/live", "/api/posts/5", "/api/posts/0"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	recs := records()
	require.Len(t, recs, 2, "healthy probe requests are not logged")
	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "/api/posts/:id", recs[0]["route"])
	assert.Equal(t, float64(9), recs[0]["user_id"])
	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, float64(404), recs[1]["status"])
}
