package service

import (
	"context"
	"strings"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	isAdmin     AdminCheck
}

type CreateProjectInput struct {
	OwnerID        uint
	Title          string
	Description    string
	Type           string
	Domain         string
	Status         models.ProjectStatus
	Visibility     models.Visibility
	Required       int64
	Links          models.ProjectLinks
	Tags           []string
	StartDate      *time.Time
	EndDate        *time.Time
	RequiredSkills []models.RequiredSkill
}

// UpdateProjectInput carries a partial update. Nil fields are left alone.
type UpdateProjectInput struct {
	ProjectID      uint
	ActorID        uint
	Title          *string
	Description    *string
	Type           *string
	Domain         *string
	Status         *models.ProjectStatus
	Visibility     *models.Visibility
	Required       *int64
	Links          *models.ProjectLinks
	Tags           []string
	StartDate      *time.Time
	EndDate        *time.Time
	RequiredSkills []models.RequiredSkill
}

type MilestoneInput struct {
	ProjectID   uint
	ActorID     uint
	Title       string
	Description string
	DueDate     *time.Time
}

var projectStatuses = []models.ProjectStatus{
	models.ProjectStatusPlanning, models.ProjectStatusActive, models.ProjectStatusCompleted,
	models.ProjectStatusOnHold, models.ProjectStatusCancelled,
}

func NewProjectService(projectRepo repository.ProjectRepository, isAdmin AdminCheck) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, isAdmin: isAdmin}
}

func validateProject(errs *validation.Errors, p *models.Project) {
	errs.Length("title", p.Title, 1, 200, "Title is required and cannot exceed 200 characters")
	errs.Length("description", p.Description, 1, 2000, "Description is required and cannot exceed 2000 characters")
	validation.OneOf(errs, "type", p.Type, models.ProjectTypes, false, "Invalid project type")
	validation.OneOf(errs, "domain", p.Domain, models.ProjectDomains, true, "Invalid project domain")
	validation.OneOf(errs, "status", p.Status, projectStatuses, false, "Invalid status")
	validation.OneOf(errs, "visibility", p.Visibility, postVisibilities, false, "Invalid visibility")
	errs.Range("teamSize.required", p.TeamSize.Required, 1, 50, "Required team size must be between 1 and 50")
	if p.StartDate != nil && p.EndDate != nil {
		errs.Require(!p.EndDate.Before(*p.StartDate), "endDate", "End date cannot be before the start date")
	}
	errs.Tags("tags", p.Tags)
}

func (s *ProjectService) CreateProject(ctx context.Context, in CreateProjectInput) (*models.Project, error) {
	if in.Status == "" {
		in.Status = models.ProjectStatusPlanning
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	project := &models.Project{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		OwnerID:     in.OwnerID,
		Type:        in.Type,
		Domain:      in.Domain,
		Status:      in.Status,
		Visibility:  in.Visibility,
		TeamSize:    models.TeamSize{Required: in.Required},
		Links:       in.Links,
		Tags:        validation.NormalizeTags(in.Tags),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}

	var errs validation.Errors
	validateProject(&errs, project)
	skills := requiredSkills(&errs, in.RequiredSkills)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Create(ctx, project, skills); err != nil {
		return nil, err
	}
	return s.load(ctx, project.ID)
}

// GetProject returns the project and counts a view.
func (s *ProjectService) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	project.Views++
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, f repository.ProjectFilter, p repository.Paging) (models.Page[models.Project], error) {
	var errs validation.Errors
	validation.OneOf(&errs, "type", f.Type, models.ProjectTypes, true, "Invalid project type")
	validation.OneOf(&errs, "domain", f.Domain, models.ProjectDomains, true, "Invalid project domain")
	validation.OneOf(&errs, "status", f.Status, projectStatuses, true, "Invalid status")
	if err := errs.Err(); err != nil {
		return models.Page[models.Project]{}, err
	}
	projects, total, err := s.projectRepo.List(ctx, f, p)
	if err != nil {
		return models.Page[models.Project]{}, err
	}
	for i := range projects {
		projects[i].Derive()
	}
	return repository.NewPage(projects, total, p), nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, in UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, project.OwnerID, in.ActorID, "Only the project owner can update the project"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		project.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		project.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		project.Type = *in.Type
	}
	if in.Domain != nil {
		project.Domain = *in.Domain
	}
	if in.Status != nil {
		project.Status = *in.Status
	}
	if in.Visibility != nil {
		project.Visibility = *in.Visibility
	}
	if in.Required != nil {
		project.TeamSize.Required = *in.Required
	}
	if in.Links != nil {
		project.Links = *in.Links
	}
	if in.Tags != nil {
		project.Tags = validation.NormalizeTags(in.Tags)
	}
	if in.StartDate != nil {
		project.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		project.EndDate = in.EndDate
	}

	var errs validation.Errors
	validateProject(&errs, project)
	skills := requiredSkills(&errs, in.RequiredSkills)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Update(ctx, project, skills); err != nil {
		return nil, err
	}
	return s.load(ctx, project.ID)
}

// CancelProject is the project delete. The project stays with status cancelled.
func (s *ProjectService) CancelProject(ctx context.Context, id, actorID uint) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, project.OwnerID, actorID, "Only the project owner can cancel the project"); err != nil {
		return err
	}
	return s.projectRepo.SetStatus(ctx, id, models.ProjectStatusCancelled)
}

func (s *ProjectService) AddMilestone(ctx context.Context, in MilestoneInput) (*models.ProjectMilestone, error) {
	var errs validation.Errors
	errs.Length("title", in.Title, 1, 200, "Milestone title is required and cannot exceed 200 characters")
	errs.MaxLength("description", in.Description, 1000, "Milestone description cannot exceed 1000 characters")
	if err := errs.Err(); err != nil {
		return nil, err
	}
	project, err := s.projectRepo.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, project.OwnerID, in.ActorID, "Only the project owner can manage milestones"); err != nil {
		return nil, err
	}
	m := &models.ProjectMilestone{
		ProjectID:   in.ProjectID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
	}
	if err := s.projectRepo.AddMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CompleteMilestone marks a milestone done and returns the project with its
// recomputed progress.
func (s *ProjectService) CompleteMilestone(ctx context.Context, projectID, milestoneID, actorID uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, project.OwnerID, actorID, "Only the project owner can manage milestones"); err != nil {
		return nil, err
	}
	if _, err := s.projectRepo.CompleteMilestone(ctx, projectID, milestoneID, utcNow()); err != nil {
		return nil, err
	}
	return s.load(ctx, projectID)
}

func (s *ProjectService) load(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Derive()
	return project, nil
}
