package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collegeconnect/internal/config"
	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetWithCredentials(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) Deactivate(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, p repository.Paging) ([]models.User, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Stats(ctx context.Context, id uint) (models.UserStats, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.UserStats), args.Error(1)
}

func TestSignup(t *testing.T) {
	app := fiber.New()
	mockRepo := new(MockUserRepository)

	s := &Server{
		config:      &config.Config{JWTSecret: "test_secret"},
		userService: service.NewUserService(mockRepo, nil),
	}

	app.Post("/signup", s.Signup)

	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "Success",
			body: map[string]string{
				"name":     "Asha Rao",
				"email":    "Asha@Example.edu",
				"password": "secret123",
				"college":  "IIT Bombay",
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "asha@example.edu").Return(nil, nil)
				mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate User",
			body: map[string]string{
				"name":     "Asha Rao",
				"email":    "exists@example.edu",
				"password": "secret123",
				"college":  "IIT Bombay",
			},
			mockSetup: func() {
				mockRepo.On("GetByEmail", mock.Anything, "exists@example.edu").Return(&models.User{ID: 1}, nil)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "Short Password",
			body: map[string]string{
				"name":     "Asha Rao",
				"email":    "short@example.edu",
				"password": "abc",
				"college":  "IIT Bombay",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Admin Role Rejected",
			body: map[string]string{
				"name":     "Asha Rao",
				"email":    "role@example.edu",
				"password": "secret123",
				"college":  "IIT Bombay",
				"role":     "admin",
			},
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, _ := app.Test(req)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestSignupReportsEveryInvalidField(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"name":     "A",
		"email":    "not-an-email",
		"password": "abc",
		"college":  "X",
	})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, models.CodeValidation, resp.Code)

	fields := map[string]bool{}
	for _, fe := range resp.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["college"])
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	email := env.signup(t, "IIT Bombay").Email

	t.Run("wrong password", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": "nope12345"})
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": "ghost@example.edu", "password": "secret123"})
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.Equal(t, "Invalid email or password", resp.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email})
		assert.Equal(t, http.StatusBadRequest, resp.Status)
	})

	t.Run("success", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": "secret123"})
		require.Equal(t, http.StatusOK, resp.Status)

		var auth authResponse
		resp.decode(t, &auth)
		assert.NotEmpty(t, auth.Token)
		assert.Equal(t, email, auth.User.Email)
		assert.NotNil(t, auth.User.LastLogin)

		me := env.do(t, http.MethodGet, "/api/auth/me", auth.Token, nil)
		require.Equal(t, http.StatusOK, me.Status)
		var user models.User
		me.decode(t, &user)
		assert.Equal(t, auth.User.ID, user.ID)
	})
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "NIT Trichy")

	resp := env.do(t, http.MethodGet, "/api/auth/me", user.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.NotContains(t, string(resp.Data), "password")
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "IIT Delhi")

	resp := env.do(t, http.MethodPost, "/api/auth/logout", user.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	claims, err := middleware.ParseToken(testJWTSecret, user.Token)
	require.NoError(t, err)
	assert.True(t, env.mr.Exists(middleware.RevocationKey(claims.JTI)))

	resp = env.do(t, http.MethodGet, "/api/auth/me", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "Token has been revoked", resp.Message)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "BITS Pilani")
	email := user.Email

	resp := env.do(t, http.MethodPut, "/api/auth/password", user.Token, fiber.Map{
		"currentPassword": "wrong-one",
		"newPassword":     "another123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	resp = env.do(t, http.MethodPut, "/api/auth/password", user.Token, fiber.Map{
		"currentPassword": "secret123",
		"newPassword":     "another123",
	})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	resp = env.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{"email": email, "password": "another123"})
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "IIT Madras")

	resp := env.do(t, http.MethodPut, "/api/auth/profile", user.Token, fiber.Map{
		"bio":    "Distributed systems nerd",
		"skills": []string{"Go", "Rust"},
	})
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)

	var updated models.User
	resp.decode(t, &updated)
	assert.Equal(t, "Distributed systems nerd", updated.Bio)
	assert.ElementsMatch(t, []string{"Go", "Rust"}, updated.Skills)
}
