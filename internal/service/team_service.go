package service

import (
	"context"
	"strings"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

var skillLevels = []models.SkillLevel{models.SkillBeginner, models.SkillIntermediate, models.SkillAdvanced, models.SkillExpert}

// requiredSkills validates and normalizes a requested skill list. nil stays
// nil so updates can leave the stored list alone.
func requiredSkills(errs *validation.Errors, in []models.RequiredSkill) []models.RequiredSkill {
	if in == nil {
		return nil
	}
	out := make([]models.RequiredSkill, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, sk := range in {
		sk.Skill = strings.TrimSpace(sk.Skill)
		if sk.Level == "" {
			sk.Level = models.SkillIntermediate
		}
		errs.Length("requiredSkills", sk.Skill, 1, 50, "Skill names must be between 1 and 50 characters")
		validation.OneOf(errs, "requiredSkills", sk.Level, skillLevels, false, "Invalid skill level")
		key := strings.ToLower(sk.Skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sk)
	}
	return out
}

type TeamService struct {
	teamRepo   repository.TeamRepository
	eventRepo  repository.EventRepository
	membership repository.MembershipRepository
	isAdmin    AdminCheck
}

type CreateTeamInput struct {
	LeaderID       uint
	Name           string
	Description    string
	EventID        uint
	Required       int64
	Max            int64
	Visibility     models.Visibility
	Tags           []string
	RequiredSkills []models.RequiredSkill
}

// UpdateTeamInput carries a partial update. Nil fields are left alone.
type UpdateTeamInput struct {
	TeamID         uint
	ActorID        uint
	Name           *string
	Description    *string
	Required       *int64
	Max            *int64
	Status         *models.TeamStatus
	Visibility     *models.Visibility
	Tags           []string
	RequiredSkills []models.RequiredSkill
}

var (
	teamStatuses     = []models.TeamStatus{models.TeamStatusForming, models.TeamStatusActive, models.TeamStatusCompleted, models.TeamStatusDisbanded}
	teamVisibilities = []models.Visibility{models.VisibilityPublic, models.VisibilityPrivate}
)

func NewTeamService(
	teamRepo repository.TeamRepository,
	eventRepo repository.EventRepository,
	membership repository.MembershipRepository,
	isAdmin AdminCheck,
) *TeamService {
	return &TeamService{teamRepo: teamRepo, eventRepo: eventRepo, membership: membership, isAdmin: isAdmin}
}

func validateTeam(errs *validation.Errors, t *models.Team) {
	errs.Length("name", t.Name, 1, 100, "Team name is required and cannot exceed 100 characters")
	errs.Length("description", t.Description, 1, 1000, "Description is required and cannot exceed 1000 characters")
	errs.Range("teamSize.required", t.TeamSize.Required, 1, 20, "Required team size must be between 1 and 20")
	errs.Range("teamSize.max", t.TeamSize.Max, 1, 20, "Maximum team size must be between 1 and 20")
	errs.Require(t.TeamSize.Max >= t.TeamSize.Required, "teamSize.max", "Maximum team size cannot be below the required size")
	validation.OneOf(errs, "visibility", t.Visibility, teamVisibilities, false, "Invalid visibility")
	validation.OneOf(errs, "status", t.Status, teamStatuses, false, "Invalid status")
	errs.Tags("tags", t.Tags)
}

// CreateTeam forms a team around an event that is still open.
func (s *TeamService) CreateTeam(ctx context.Context, in CreateTeamInput) (*models.Team, error) {
	if in.Max == 0 {
		in.Max = models.DefaultTeamMax
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	team := &models.Team{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		LeaderID:    in.LeaderID,
		EventID:     in.EventID,
		TeamSize:    models.TeamSize{Required: in.Required, Max: in.Max},
		Status:      models.TeamStatusForming,
		Visibility:  in.Visibility,
		Tags:        validation.NormalizeTags(in.Tags),
	}

	var errs validation.Errors
	errs.Require(in.EventID != 0, "event", "Event is required")
	validateTeam(&errs, team)
	skills := requiredSkills(&errs, in.RequiredSkills)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.EventStatusCancelled || event.Status == models.EventStatusCompleted {
		return nil, models.NewValidationError("Teams can only be formed for upcoming or ongoing events")
	}

	if err := s.teamRepo.Create(ctx, team, skills); err != nil {
		return nil, err
	}
	return s.load(ctx, team.ID)
}

// GetTeam counts a view. Private teams are hidden from everyone but their
// members and admins.
func (s *TeamService) GetTeam(ctx context.Context, id, viewerID uint) (*models.Team, error) {
	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if team.Visibility == models.VisibilityPrivate {
		if err := s.checkMemberOrAdmin(ctx, team, viewerID); err != nil {
			return nil, models.NewNotFoundError("Team", id)
		}
	}
	if err := s.teamRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	team.Views++
	return team, nil
}

func (s *TeamService) checkMemberOrAdmin(ctx context.Context, team *models.Team, viewerID uint) error {
	if viewerID == 0 {
		return models.NewForbiddenError("Private team")
	}
	member, err := s.membership.IsActiveMember(ctx, models.KindTeam, team.ID, viewerID)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	return authorize(ctx, s.isAdmin, team.LeaderID, viewerID, "Private team")
}

func (s *TeamService) ListTeams(ctx context.Context, f repository.TeamFilter, p repository.Paging) (models.Page[models.Team], error) {
	if f.Status != "" {
		var errs validation.Errors
		validation.OneOf(&errs, "status", f.Status, teamStatuses, false, "Invalid status")
		if err := errs.Err(); err != nil {
			return models.Page[models.Team]{}, err
		}
	}
	teams, total, err := s.teamRepo.List(ctx, f, p)
	if err != nil {
		return models.Page[models.Team]{}, err
	}
	for i := range teams {
		teams[i].Derive()
	}
	return repository.NewPage(teams, total, p), nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, in UpdateTeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, team.LeaderID, in.ActorID, "Only the team leader can update the team"); err != nil {
		return nil, err
	}

	if in.Name != nil {
		team.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		team.Description = strings.TrimSpace(*in.Description)
	}
	if in.Required != nil {
		team.TeamSize.Required = *in.Required
	}
	if in.Max != nil {
		team.TeamSize.Max = *in.Max
	}
	if in.Status != nil {
		team.Status = *in.Status
	}
	if in.Visibility != nil {
		team.Visibility = *in.Visibility
	}
	if in.Tags != nil {
		team.Tags = validation.NormalizeTags(in.Tags)
	}

	var errs validation.Errors
	validateTeam(&errs, team)
	errs.Require(team.TeamSize.Max >= team.TeamSize.Current, "teamSize.max", "Maximum team size cannot be below the current roster")
	skills := requiredSkills(&errs, in.RequiredSkills)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.teamRepo.Update(ctx, team, skills); err != nil {
		return nil, err
	}
	return s.load(ctx, team.ID)
}

// DisbandTeam is the team delete. The team stays with status disbanded.
func (s *TeamService) DisbandTeam(ctx context.Context, id, actorID uint) error {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, team.LeaderID, actorID, "Only the team leader can disband the team"); err != nil {
		return err
	}
	return s.teamRepo.SetStatus(ctx, id, models.TeamStatusDisbanded)
}

func (s *TeamService) load(ctx context.Context, id uint) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Derive()
	return team, nil
}
