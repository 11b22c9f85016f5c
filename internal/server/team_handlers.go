package server

import (
	"strconv"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type teamRequest struct {
	Name           *string                `json:"name"`
	Description    *string                `json:"description"`
	Event          uint                   `json:"event"`
	TeamSize       *teamSizeRequest       `json:"teamSize"`
	Status         *models.TeamStatus     `json:"status"`
	Visibility     *models.Visibility     `json:"visibility"`
	Tags           []string               `json:"tags"`
	RequiredSkills []models.RequiredSkill `json:"requiredSkills"`
}

type teamSizeRequest struct {
	Required *int64 `json:"required"`
	Max      *int64 `json:"max"`
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// GetTeams handles GET /api/teams
// @Summary List teams
// @Tags teams
// @Produce json
// @Param event query int false "Event ID"
// @Param status query string false "forming, active, completed or disbanded"
// @Param skill query string false "Required skill"
// @Param search query string false "Name search"
// @Success 200 {object} models.ListEnvelope
// @Router /teams [get]
func (s *Server) GetTeams(c *fiber.Ctx) error {
	eventID, _ := strconv.ParseUint(c.Query("event"), 10, 32)
	page, err := s.teamService.ListTeams(c.UserContext(), repository.TeamFilter{
		EventID:  uint(eventID),
		Status:   models.TeamStatus(c.Query("status")),
		Skill:    c.Query("skill"),
		Search:   c.Query("search"),
		ViewerID: s.optionalUserID(c),
	}, parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetTeam handles GET /api/teams/:id
// @Summary Get team
// @Tags teams
// @Produce json
// @Param id path int true "Team ID"
// @Success 200 {object} models.Envelope{data=models.Team}
// @Failure 404 {object} models.ErrorResponse
// @Router /teams/{id} [get]
func (s *Server) GetTeam(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	team, err := s.teamService.GetTeam(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", team)
}

// CreateTeam handles POST /api/teams
// @Summary Create team
// @Description The caller becomes the leader and first member.
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body teamRequest true "Team"
// @Success 201 {object} models.Envelope{data=models.Team}
// @Router /teams [post]
func (s *Server) CreateTeam(c *fiber.Ctx) error {
	var req teamRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.CreateTeamInput{
		LeaderID:       currentUserID(c),
		Name:           derefString(req.Name),
		Description:    derefString(req.Description),
		EventID:        req.Event,
		Tags:           req.Tags,
		RequiredSkills: req.RequiredSkills,
	}
	if req.TeamSize != nil {
		in.Required = derefInt64(req.TeamSize.Required)
		in.Max = derefInt64(req.TeamSize.Max)
	}
	if req.Visibility != nil {
		in.Visibility = *req.Visibility
	}

	team, err := s.teamService.CreateTeam(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Team created successfully", team)
}

// UpdateTeam handles PUT /api/teams/:id
// @Summary Update team
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Param request body teamRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Team}
// @Failure 403 {object} models.ErrorResponse
// @Router /teams/{id} [put]
func (s *Server) UpdateTeam(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req teamRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.UpdateTeamInput{
		TeamID:         id,
		ActorID:        currentUserID(c),
		Name:           req.Name,
		Description:    req.Description,
		Status:         req.Status,
		Visibility:     req.Visibility,
		Tags:           req.Tags,
		RequiredSkills: req.RequiredSkills,
	}
	if req.TeamSize != nil {
		in.Required = req.TeamSize.Required
		in.Max = req.TeamSize.Max
	}

	team, err := s.teamService.UpdateTeam(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Team updated successfully", team)
}

// DisbandTeam handles DELETE /api/teams/:id
// @Summary Disband team
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Success 200 {object} models.Envelope
// @Router /teams/{id} [delete]
func (s *Server) DisbandTeam(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.teamService.DisbandTeam(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Team disbanded successfully", nil)
}
