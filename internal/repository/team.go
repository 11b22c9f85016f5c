package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeamFilter narrows team listings. Private teams are listed only to their
// active members.
type TeamFilter struct {
	EventID  uint
	Status   models.TeamStatus
	Skill    string
	Search   string
	ViewerID uint
}

// TeamRepository defines persistence operations for teams.
type TeamRepository interface {
	// Create stores the team and seats the leader as its first active member.
	Create(ctx context.Context, team *models.Team, skills []models.RequiredSkill) error
	GetByID(ctx context.Context, id uint) (*models.Team, error)
	// Update writes the editable fields. A non-nil skills replaces the required skills.
	Update(ctx context.Context, team *models.Team, skills []models.RequiredSkill) error
	SetStatus(ctx context.Context, id uint, status models.TeamStatus) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, f TeamFilter, p Paging) ([]models.Team, int64, error)
}

type teamRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db, log: observability.NewRepoLogger("teams")}
}

// seatManager inserts the leader or owner row and syncs the roster size.
func seatManager(tx *gorm.DB, kind models.EntityKind, id, userID uint, role string, now time.Time) error {
	leader := models.Member{
		EntityKind: kind,
		EntityID:   id,
		UserID:     userID,
		Role:       role,
		Skills:     []string{},
		Status:     models.MemberActive,
		JoinedAt:   now,
	}
	if err := tx.Create(&leader).Error; err != nil {
		return err
	}
	return syncTeamSize(tx, kind, id, now)
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team, skills []models.RequiredSkill) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		if err := replaceRequiredSkills(tx, models.KindTeam, team.ID, skills); err != nil {
			return err
		}
		if err := seatManager(tx, models.KindTeam, team.ID, team.LeaderID, models.RoleLeader, now); err != nil {
			return err
		}
		team.TeamSize.Current = 1
		team.RequiredSkills = skills
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"team_id": team.ID, "leader_id": team.LeaderID})
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id uint) (*models.Team, error) {
	db := readDB(r.db).WithContext(ctx)
	var team models.Team
	if err := db.Preload("Leader").Preload("Event").First(&team, id).Error; err != nil {
		return nil, notFoundOr(err, "Team", id)
	}
	if err := db.Preload("User").
		Where("entity_kind = ? AND entity_id = ? AND status = ?", models.KindTeam, id, models.MemberActive).
		Order("joined_at ASC, id ASC").
		Find(&team.Members).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	skills, err := skillsByEntity(db, models.KindTeam, []uint{id})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	team.RequiredSkills = skills[id]
	return &team, nil
}

func (r *teamRepository) Update(ctx context.Context, team *models.Team, skills []models.RequiredSkill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(team).
			Select("name", "description", "team_size_required", "team_size_max", "status", "visibility", "tags", "updated_at").
			Omit(clause.Associations).
			Updates(team)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Team", team.ID)
		}
		if skills == nil {
			return nil
		}
		team.RequiredSkills = skills
		return replaceRequiredSkills(tx, models.KindTeam, team.ID, skills)
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return internal(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"team_id": team.ID})
	return nil
}

func (r *teamRepository) SetStatus(ctx context.Context, id uint, status models.TeamStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Team", id)
	}
	return nil
}

func (r *teamRepository) IncrementViews(ctx context.Context, id uint) error {
	return internal(r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error)
}

func teamFilterScope(f TeamFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.EventID != 0 {
			db = db.Where("teams.event_id = ?", f.EventID)
		}
		if f.Status != "" {
			db = db.Where("teams.status = ?", f.Status)
		}
		if f.Skill != "" {
			db = skillFilter("teams", models.KindTeam, f.Skill)(db)
		}
		if f.Search != "" {
			pattern := containsPattern(f.Search)
			db = db.Where(ilike("teams.name")+" OR "+ilike("teams.description"), pattern, pattern)
		}
		return db.Where("teams.visibility = ? OR teams.id IN (SELECT entity_id FROM members WHERE entity_kind = ? AND user_id = ? AND status = ?)",
			models.VisibilityPublic, models.KindTeam, f.ViewerID, models.MemberActive)
	}
}

func (r *teamRepository) List(ctx context.Context, f TeamFilter, p Paging) ([]models.Team, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Team{}).Scopes(teamFilterScope(f)).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var teams []models.Team
	err := db.Scopes(teamFilterScope(f)).
		Preload("Leader").
		Order("teams.created_at DESC, teams.id DESC").
		Scopes(p.apply).
		Find(&teams).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	skills, err := skillsByEntity(db, models.KindTeam, ids)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range teams {
		teams[i].RequiredSkills = skills[teams[i].ID]
	}
	return teams, total, nil
}
