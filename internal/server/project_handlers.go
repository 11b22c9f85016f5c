package server

import (
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

type projectRequest struct {
	Title          *string                `json:"title"`
	Description    *string                `json:"description"`
	Type           *string                `json:"type"`
	Domain         *string                `json:"domain"`
	Status         *models.ProjectStatus  `json:"status"`
	Visibility     *models.Visibility     `json:"visibility"`
	TeamSize       *teamSizeRequest       `json:"teamSize"`
	Links          *models.ProjectLinks   `json:"links"`
	Tags           []string               `json:"tags"`
	StartDate      *time.Time             `json:"startDate"`
	EndDate        *time.Time             `json:"endDate"`
	RequiredSkills []models.RequiredSkill `json:"requiredSkills"`
}

// GetProjects handles GET /api/projects
// @Summary List projects
// @Tags projects
// @Produce json
// @Param type query string false "Project type"
// @Param domain query string false "Project domain"
// @Param status query string false "Project status"
// @Param skill query string false "Required skill"
// @Param search query string false "Title search"
// @Success 200 {object} models.ListEnvelope
// @Router /projects [get]
func (s *Server) GetProjects(c *fiber.Ctx) error {
	page, err := s.projectService.ListProjects(c.UserContext(), repository.ProjectFilter{
		Type:   c.Query("type"),
		Domain: c.Query("domain"),
		Status: models.ProjectStatus(c.Query("status")),
		Skill:  c.Query("skill"),
		Search: c.Query("search"),
	}, parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetProject handles GET /api/projects/:id
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} models.Envelope{data=models.Project}
// @Router /projects/{id} [get]
func (s *Server) GetProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	project, err := s.projectService.GetProject(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", project)
}

// CreateProject handles POST /api/projects
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body projectRequest true "Project"
// @Success 201 {object} models.Envelope{data=models.Project}
// @Router /projects [post]
func (s *Server) CreateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.CreateProjectInput{
		OwnerID:        currentUserID(c),
		Title:          derefString(req.Title),
		Description:    derefString(req.Description),
		Type:           derefString(req.Type),
		Domain:         derefString(req.Domain),
		Tags:           req.Tags,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		RequiredSkills: req.RequiredSkills,
	}
	if req.Status != nil {
		in.Status = *req.Status
	}
	if req.Visibility != nil {
		in.Visibility = *req.Visibility
	}
	if req.TeamSize != nil {
		in.Required = derefInt64(req.TeamSize.Required)
	}
	if req.Links != nil {
		in.Links = *req.Links
	}

	project, err := s.projectService.CreateProject(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Project created successfully", project)
}

// UpdateProject handles PUT /api/projects/:id
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body projectRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Project}
// @Router /projects/{id} [put]
func (s *Server) UpdateProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req projectRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.UpdateProjectInput{
		ProjectID:      id,
		ActorID:        currentUserID(c),
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Domain:         req.Domain,
		Status:         req.Status,
		Visibility:     req.Visibility,
		Links:          req.Links,
		Tags:           req.Tags,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		RequiredSkills: req.RequiredSkills,
	}
	if req.TeamSize != nil {
		in.Required = req.TeamSize.Required
	}

	project, err := s.projectService.UpdateProject(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Project updated successfully", project)
}

// CancelProject handles DELETE /api/projects/:id
// @Summary Cancel project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Success 200 {object} models.Envelope
// @Router /projects/{id} [delete]
func (s *Server) CancelProject(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.projectService.CancelProject(c.UserContext(), id, currentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Project cancelled successfully", nil)
}

// AddMilestone handles POST /api/projects/:id/milestones
// @Summary Add milestone
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param request body object{title=string,description=string,dueDate=string} true "Milestone"
// @Success 201 {object} models.Envelope{data=models.ProjectMilestone}
// @Router /projects/{id}/milestones [post]
func (s *Server) AddMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	milestone, err := s.projectService.AddMilestone(c.UserContext(), service.MilestoneInput{
		ProjectID:   id,
		ActorID:     currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusCreated, "Milestone added successfully", milestone)
}

// CompleteMilestone handles POST /api/projects/:id/milestones/:milestoneId/complete
// @Summary Complete milestone
// @Description Returns the project with its recomputed progress.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID"
// @Param milestoneId path int true "Milestone ID"
// @Success 200 {object} models.Envelope{data=models.Project}
// @Router /projects/{id}/milestones/{milestoneId}/complete [post]
func (s *Server) CompleteMilestone(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	milestoneID, err := s.parseID(c, "milestoneId")
	if err != nil {
		return nil
	}
	project, err := s.projectService.CompleteMilestone(c.UserContext(), id, milestoneID, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Milestone completed", project)
}
