package server

import (
	"net/url"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"
	"collegeconnect/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type profileRequest struct {
	Name         *string                 `json:"name"`
	College      *string                 `json:"college"`
	Course       *string                 `json:"course"`
	Year         *string                 `json:"year"`
	Semester     *int                    `json:"semester"`
	Bio          *string                 `json:"bio"`
	Skills       []string                `json:"skills"`
	Interests    []string                `json:"interests"`
	SocialLinks  *models.SocialLinks     `json:"socialLinks"`
	ProfileImage *string                 `json:"profileImage"`
	Preferences  *models.UserPreferences `json:"preferences"`
	Role         *models.UserRole        `json:"role"`
	IsVerified   *bool                   `json:"isVerified"`
}

func (r profileRequest) input(actorID, userID uint) service.UpdateProfileInput {
	return service.UpdateProfileInput{
		ActorID:      actorID,
		UserID:       userID,
		Name:         r.Name,
		College:      r.College,
		Course:       r.Course,
		Year:         r.Year,
		Semester:     r.Semester,
		Bio:          r.Bio,
		Skills:       r.Skills,
		Interests:    r.Interests,
		SocialLinks:  r.SocialLinks,
		ProfileImage: r.ProfileImage,
		Preferences:  r.Preferences,
		Role:         r.Role,
		IsVerified:   r.IsVerified,
	}
}

// GetUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param role query string false "student, faculty or admin"
// @Param college query string false "College substring"
// @Param skills query string false "Comma separated skills"
// @Param search query string false "Name search"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ListEnvelope
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Role:    models.UserRole(c.Query("role")),
		College: c.Query("college"),
		Skills:  validation.SplitList(c.Query("skills")),
		Search:  c.Query("search"),
	}
	return s.listUsers(c, filter)
}

// SearchUsersBySkills handles GET /api/users/search/skills
// @Summary Find users by skills
// @Tags users
// @Produce json
// @Param skills query string true "Comma separated skills"
// @Success 200 {object} models.ListEnvelope
// @Router /users/search/skills [get]
func (s *Server) SearchUsersBySkills(c *fiber.Ctx) error {
	skills := validation.SplitList(c.Query("skills"))
	if len(skills) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Skills parameter is required"))
	}
	return s.listUsers(c, repository.UserFilter{Skills: skills})
}

// GetUsersByCollege handles GET /api/users/college/:college
// @Summary Users at a college
// @Tags users
// @Produce json
// @Param college path string true "College name"
// @Success 200 {object} models.ListEnvelope
// @Router /users/college/{college} [get]
func (s *Server) GetUsersByCollege(c *fiber.Ctx) error {
	college, err := url.PathUnescape(c.Params("college"))
	if err != nil || college == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid college"))
	}
	return s.listUsers(c, repository.UserFilter{College: college})
}

func (s *Server) listUsers(c *fiber.Ctx, filter repository.UserFilter) error {
	page, err := s.userService.ListUsers(c.UserContext(), filter, parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetUser handles GET /api/users/:id
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", user)
}

// GetUserStats handles GET /api/users/:id/stats
// @Summary Derived activity stats for a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope{data=service.UserProfileStats}
// @Router /users/{id}/stats [get]
func (s *Server) GetUserStats(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	stats, err := s.userService.Stats(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", stats)
}

// UpdateUser handles PUT /api/users/:id
// @Summary Update a user
// @Description The user themselves or an admin. Role and verification are admin only.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body profileRequest true "Profile fields"
// @Success 200 {object} models.Envelope{data=models.User}
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req profileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), req.input(currentUserID(c), id))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "User updated successfully", user)
}

// DeactivateUser handles DELETE /api/users/:id
// @Summary Deactivate a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.Envelope
// @Router /users/{id} [delete]
func (s *Server) DeactivateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Deactivate(c.UserContext(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "User deactivated successfully", nil)
}
