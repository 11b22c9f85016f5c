package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"collegeconnect/internal/config"
	"collegeconnect/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_AuthRequired(t *testing.T) {
	secret := testJWTSecret
	s := &Server{
		config: &config.Config{JWTSecret: secret},
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID})
	})

	generateToken := func(userID uint, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": strconv.FormatUint(uint64(userID), 10),
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(secret))
		return str
	}

	otherSecretToken, _, err := middleware.IssueToken("some-other-secret", 123, time.Now())
	assert.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Token Signed With Other Secret",
			authHeader:     "Bearer " + otherSecretToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, middleware.TokenAudience, -time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken(123, "wrong-issuer", middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken(123, middleware.TokenIssuer, "wrong-audience", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Invalid Subject Type (Mocked Manually)",
			authHeader: "Bearer " + func() string {
				claims := jwt.MapClaims{"sub": 123, "iss": middleware.TokenIssuer, "aud": middleware.TokenAudience, "exp": time.Now().Add(time.Hour).Unix()}
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
				str, _ := token.SignedString([]byte(secret))
				return str
			}(),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				_ = json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, float64(123), body["userID"])
			}
			_ = resp.Body.Close()
		})
	}
}

func TestServer_OptionalUserID(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testJWTSecret}}
	app := fiber.New()
	app.Get("/public", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"viewer": s.optionalUserID(c)})
	})

	token, _, err := middleware.IssueToken(testJWTSecret, 77, time.Now())
	assert.NoError(t, err)

	tests := []struct {
		name       string
		authHeader string
		want       float64
	}{
		{"anonymous", "", 0},
		{"valid token", "Bearer " + token, 77},
		{"garbage token", "Bearer nope", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/public", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var body map[string]float64
			_ = json.NewDecoder(resp.Body).Decode(&body)
			assert.Equal(t, tt.want, body["viewer"])
		})
	}
}

func TestServer_AuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{config: &config.Config{JWTSecret: testJWTSecret}, redis: rdb}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"jti": c.Locals("jti")})
	})

	token, claims, err := middleware.IssueToken(testJWTSecret, 42, time.Now())
	require.NoError(t, err)

	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, call())

	require.NoError(t, mr.Set(middleware.RevocationKey(claims.JTI), "1"))
	assert.Equal(t, http.StatusUnauthorized, call())

	mr.SetError("LOADING")
	assert.Equal(t, http.StatusOK, call(), "blacklist lookup errors fail open")
}
