package server

import (
	"time"

	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
	College  string          `json:"college"`
	Course   string          `json:"course"`
	Year     string          `json:"year"`
	Semester int             `json:"semester"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new student or faculty account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} models.Envelope{data=authResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.Register(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		College:  req.College,
		Course:   req.Course,
		Year:     req.Year,
		Semester: req.Semester,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusCreated, "User registered successfully", user)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} models.Envelope{data=authResponse}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}
	return s.respondWithToken(c, fiber.StatusOK, "Login successful", user)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, message string, user *models.User) error {
	token, claims, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}
	return respondData(c, status, message, authResponse{Token: token, ExpiresAt: claims.ExpiresAt, User: user})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", user)
}

// UpdateMyProfile handles PUT /api/auth/profile
// @Summary Update own profile
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body profileRequest true "Profile fields"
// @Success 200 {object} models.Envelope{data=models.User}
// @Router /auth/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	userID := currentUserID(c)
	user, err := s.userService.UpdateProfile(c.UserContext(), req.input(userID, userID))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Profile updated successfully", user)
}

// ChangePassword handles PUT /api/auth/password
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{currentPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} models.Envelope
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.userService.ChangePassword(c.UserContext(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Password changed successfully", nil)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revokes the presented token until it would have expired
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	expiresAt, _ := c.Locals("tokenExpiresAt").(time.Time)

	if jti != "" && s.redis != nil {
		ttl := time.Until(expiresAt)
		if ttl <= 0 {
			ttl = middleware.TokenTTL
		}
		if err := s.redis.Set(c.UserContext(), middleware.RevocationKey(jti), "1", ttl).Err(); err != nil {
			middleware.RedisErrors.WithLabelValues("blacklist").Inc()
			return s.respondError(c, models.NewInternalError(err))
		}
	}
	return respondData(c, fiber.StatusOK, "Logged out successfully", nil)
}
