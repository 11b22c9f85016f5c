package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Type   string
	Domain string
	Status models.ProjectStatus
	Skill  string
	Search string
}

// ProjectRepository defines persistence operations for projects and their milestones.
type ProjectRepository interface {
	// Create stores the project and seats the owner as its first active member.
	Create(ctx context.Context, project *models.Project, skills []models.RequiredSkill) error
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	Update(ctx context.Context, project *models.Project, skills []models.RequiredSkill) error
	SetStatus(ctx context.Context, id uint, status models.ProjectStatus) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, f ProjectFilter, p Paging) ([]models.Project, int64, error)
	AddMilestone(ctx context.Context, m *models.ProjectMilestone) error
	CompleteMilestone(ctx context.Context, projectID, milestoneID uint, now time.Time) (*models.ProjectMilestone, error)
}

type projectRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db, log: observability.NewRepoLogger("projects")}
}

func milestoneOrder(db *gorm.DB) *gorm.DB {
	return db.Order("project_milestones.id ASC")
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project, skills []models.RequiredSkill) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if err := replaceRequiredSkills(tx, models.KindProject, project.ID, skills); err != nil {
			return err
		}
		if err := seatManager(tx, models.KindProject, project.ID, project.OwnerID, models.RoleOwner, now); err != nil {
			return err
		}
		project.TeamSize.Current = 1
		project.RequiredSkills = skills
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"project_id": project.ID, "owner_id": project.OwnerID})
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	db := readDB(r.db).WithContext(ctx)
	var project models.Project
	if err := db.Preload("Owner").Preload("Milestones", milestoneOrder).First(&project, id).Error; err != nil {
		return nil, notFoundOr(err, "Project", id)
	}
	if err := db.Preload("User").
		Where("entity_kind = ? AND entity_id = ? AND status = ?", models.KindProject, id, models.MemberActive).
		Order("joined_at ASC, id ASC").
		Find(&project.Members).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	skills, err := skillsByEntity(db, models.KindProject, []uint{id})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	project.RequiredSkills = skills[id]
	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project, skills []models.RequiredSkill) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(project).
			Select("title", "description", "type", "domain", "status", "visibility", "team_size_required",
				"link_repository", "link_website", "link_demo", "link_documentation", "link_design",
				"tags", "start_date", "end_date", "updated_at").
			Omit(clause.Associations).
			Updates(project)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Project", project.ID)
		}
		if skills == nil {
			return nil
		}
		project.RequiredSkills = skills
		return replaceRequiredSkills(tx, models.KindProject, project.ID, skills)
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return internal(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"project_id": project.ID})
	return nil
}

func (r *projectRepository) SetStatus(ctx context.Context, id uint, status models.ProjectStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Project", id)
	}
	return nil
}

func (r *projectRepository) IncrementViews(ctx context.Context, id uint) error {
	return internal(r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error)
}

func projectFilterScope(f ProjectFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Type != "" {
			db = db.Where("projects.type = ?", f.Type)
		}
		if f.Domain != "" {
			db = db.Where("projects.domain = ?", f.Domain)
		}
		if f.Status != "" {
			db = db.Where("projects.status = ?", f.Status)
		}
		if f.Skill != "" {
			db = skillFilter("projects", models.KindProject, f.Skill)(db)
		}
		if f.Search != "" {
			pattern := containsPattern(f.Search)
			db = db.Where(ilike("projects.title")+" OR "+ilike("projects.description"), pattern, pattern)
		}
		return db
	}
}

func (r *projectRepository) List(ctx context.Context, f ProjectFilter, p Paging) ([]models.Project, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Project{}).Scopes(projectFilterScope(f)).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var projects []models.Project
	err := db.Scopes(projectFilterScope(f)).
		Preload("Owner").
		Preload("Milestones", milestoneOrder).
		Order("projects.created_at DESC, projects.id DESC").
		Scopes(p.apply).
		Find(&projects).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(projects))
	for _, pr := range projects {
		ids = append(ids, pr.ID)
	}
	skills, err := skillsByEntity(db, models.KindProject, ids)
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	for i := range projects {
		projects[i].RequiredSkills = skills[projects[i].ID]
	}
	return projects, total, nil
}

func (r *projectRepository) AddMilestone(ctx context.Context, m *models.ProjectMilestone) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Project{}).Where("id = ?", m.ProjectID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return models.NewNotFoundError("Project", m.ProjectID)
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"project_id": m.ProjectID, "milestone_id": m.ID})
	return nil
}

// CompleteMilestone marks a milestone done. Completing it again is a no-op.
func (r *projectRepository) CompleteMilestone(ctx context.Context, projectID, milestoneID uint, now time.Time) (*models.ProjectMilestone, error) {
	var m models.ProjectMilestone
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND project_id = ?", milestoneID, projectID).First(&m).Error; err != nil {
			return notFoundOr(err, "Milestone", milestoneID)
		}
		if m.Completed {
			return nil
		}
		m.Completed = true
		m.CompletedAt = &now
		if err := tx.Model(&m).Updates(map[string]interface{}{"completed": true, "completed_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumn("updated_at", now).Error
	})
	if err != nil {
		return nil, internal(err)
	}
	return &m, nil
}
