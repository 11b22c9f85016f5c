package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"collegeconnect/internal/cache"
	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
)

// UserFilter narrows the user directory. Only active users are ever listed.
type UserFilter struct {
	Role    models.UserRole
	College string
	Skills  []string
	Search  string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetWithCredentials bypasses the cache so the password hash is loaded.
	GetWithCredentials(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, filter UserFilter, p Paging) ([]models.User, int64, error)
	Stats(ctx context.Context, id uint) (models.UserStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return notFoundOr(readDB(r.db).WithContext(ctx).First(&user, id).Error, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetWithCredentials(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("User already exists with this email")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).
		Select("name", "college", "course", "year", "semester", "bio", "skills", "interests",
			"social_linkedin", "social_github", "social_portfolio", "social_twitter", "profile_image",
			"pref_email_notifications", "pref_push_notifications", "pref_profile_visibility",
			"role", "is_verified", "updated_at").
		Updates(user).Error
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"password_hash": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("last_login", at).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Deactivate is the user delete: the row stays with is_active = false.
func (r *userRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": id})
	return nil
}

func userFilterScope(f UserFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_active = ?", true)
		if f.Role != "" {
			db = db.Where("role = ?", f.Role)
		}
		if f.College != "" {
			db = db.Where(ilike("college"), containsPattern(f.College))
		}
		if len(f.Skills) > 0 {
			anySkill := db.Session(&gorm.Session{NewDB: true})
			for i, skill := range f.Skills {
				if i == 0 {
					anySkill = anySkill.Where(ilike("skills"), containsPattern(skill))
				} else {
					anySkill = anySkill.Or(ilike("skills"), containsPattern(skill))
				}
			}
			db = db.Where(anySkill)
		}
		if f.Search != "" {
			pattern := containsPattern(f.Search)
			db = db.Where(ilike("name")+" OR "+ilike("email"), pattern, pattern)
		}
		return db
	}
}

func (r *userRepository) List(ctx context.Context, f UserFilter, p Paging) ([]models.User, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Scopes(userFilterScope(f)).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.User
	err := db.Scopes(userFilterScope(f)).Order("created_at DESC, id DESC").Scopes(p.apply).Find(&users).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}

const reputationSQL = `SELECT
	COALESCE((SELECT SUM(CASE WHEN v.direction = 'up' THEN 1 ELSE -1 END)
		FROM post_votes v JOIN posts p ON p.id = v.post_id WHERE p.author_id = ?), 0) +
	COALESCE((SELECT SUM(CASE WHEN v.direction = 'up' THEN 1 ELSE -1 END)
		FROM comment_votes v JOIN comments c ON c.id = v.comment_id WHERE c.author_id = ?), 0)`

// Stats derives the profile counters from the other tables.
func (r *userRepository) Stats(ctx context.Context, id uint) (models.UserStats, error) {
	var stats models.UserStats
	err := cache.Aside(ctx, cache.UserStatsKey(id), &stats, cache.UserStatsTTL, func() error {
		db := readDB(r.db).WithContext(ctx)
		if err := db.First(&models.User{}, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		counts := []struct {
			dest  *int64
			model interface{}
			where string
			args  []interface{}
		}{
			{&stats.PostsCount, &models.Post{}, "author_id = ? AND status <> ?", []interface{}{id, models.PostStatusDeleted}},
			{&stats.CommentsCount, &models.Comment{}, "author_id = ? AND status <> ?", []interface{}{id, models.CommentStatusDeleted}},
			{&stats.ProjectsCount, &models.Member{}, "user_id = ? AND entity_kind = ? AND status = ?", []interface{}{id, models.KindProject, models.MemberActive}},
			{&stats.EventsAttended, &models.EventParticipant{}, "user_id = ? AND status = ?", []interface{}{id, models.ParticipantAttended}},
		}
		for _, c := range counts {
			if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dest).Error; err != nil {
				return models.NewInternalError(err)
			}
		}
		if err := db.Raw(reputationSQL, id, id).Scan(&stats.Reputation).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	return stats, err
}
