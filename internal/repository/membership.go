package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
)

// MembershipRepository runs the roster and join-request workflow shared by
// teams and projects.
type MembershipRepository interface {
	Roster(ctx context.Context, kind models.EntityKind, id uint) (models.RosterInfo, error)
	ListMembers(ctx context.Context, kind models.EntityKind, id uint) ([]models.Member, error)
	RequiredSkills(ctx context.Context, kind models.EntityKind, id uint) ([]models.RequiredSkill, error)
	IsActiveMember(ctx context.Context, kind models.EntityKind, id, userID uint) (bool, error)
	CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error
	ListJoinRequests(ctx context.Context, kind models.EntityKind, id uint, status models.JoinRequestStatus) ([]models.JoinRequest, error)
	// RespondToJoinRequest settles a pending request. On accept the requester
	// joins the roster in the same transaction.
	RespondToJoinRequest(ctx context.Context, kind models.EntityKind, id, requestID uint, accept bool, message string, now time.Time) (*models.JoinRequest, error)
	AddMember(ctx context.Context, kind models.EntityKind, id, userID uint, role string, skills []string, now time.Time) (*models.Member, error)
	RemoveMember(ctx context.Context, kind models.EntityKind, id, userID uint) error
}

type membershipRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{
		db:      db,
		log:     observability.NewRepoLogger("members"),
		metrics: observability.NewDatabaseMetrics("members"),
	}
}

func rosterTable(kind models.EntityKind) string {
	if kind == models.KindProject {
		return "projects"
	}
	return "teams"
}

func managerColumn(kind models.EntityKind) string {
	if kind == models.KindProject {
		return "owner_id"
	}
	return "leader_id"
}

type rosterRow struct {
	ID               uint
	ManagerID        uint
	Status           string
	TeamSizeCurrent  int64
	TeamSizeRequired int64
	TeamSizeMax      int64
}

func loadRoster(tx *gorm.DB, kind models.EntityKind, id uint) (models.RosterInfo, error) {
	var row rosterRow
	res := tx.Table(rosterTable(kind)).
		Select("id, "+managerColumn(kind)+" AS manager_id, status, team_size_current, team_size_required, team_size_max").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return models.RosterInfo{}, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.RosterInfo{}, models.NewNotFoundError(kind.Label(), id)
	}
	return models.RosterInfo{
		Kind:      kind,
		ID:        row.ID,
		ManagerID: row.ManagerID,
		Status:    row.Status,
		Size:      models.TeamSize{Current: row.TeamSizeCurrent, Required: row.TeamSizeRequired, Max: row.TeamSizeMax},
	}, nil
}

// syncTeamSize recomputes team_size_current from the active roster rows.
func syncTeamSize(tx *gorm.DB, kind models.EntityKind, id uint, now time.Time) error {
	return tx.Exec(`UPDATE `+rosterTable(kind)+` SET team_size_current = (
		SELECT COUNT(*) FROM members WHERE entity_kind = ? AND entity_id = ? AND status = ?
	), updated_at = ? WHERE id = ?`, kind, id, models.MemberActive, now, id).Error
}

func replaceRequiredSkills(tx *gorm.DB, kind models.EntityKind, id uint, skills []models.RequiredSkill) error {
	if err := tx.Where("entity_kind = ? AND entity_id = ?", kind, id).Delete(&models.RequiredSkill{}).Error; err != nil {
		return err
	}
	if len(skills) == 0 {
		return nil
	}
	for i := range skills {
		skills[i].ID = 0
		skills[i].EntityKind = kind
		skills[i].EntityID = id
	}
	return tx.Create(&skills).Error
}

func encodeSkills(skills []string) (string, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	return string(b), err
}

const upsertMemberSQL = `INSERT INTO members (entity_kind, entity_id, user_id, role, skills, status, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity_kind, entity_id, user_id) DO UPDATE
SET status = excluded.status, role = excluded.role, skills = excluded.skills, joined_at = excluded.joined_at
WHERE members.status <> excluded.status`

func addMember(tx *gorm.DB, kind models.EntityKind, id, userID uint, role string, skills []string, now time.Time) (*models.Member, error) {
	roster, err := loadRoster(lockForUpdate(tx), kind, id)
	if err != nil {
		return nil, err
	}
	active, err := isActiveMember(tx, kind, id, userID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, models.NewConflictError(fmt.Sprintf("User is already a member of this %s", strings.ToLower(kind.Label())))
	}
	if roster.Full(roster.Size.Current) {
		return nil, models.NewValidationError(fmt.Sprintf("%s is full", kind.Label()))
	}

	encoded, err := encodeSkills(skills)
	if err != nil {
		return nil, err
	}
	res := tx.Exec(upsertMemberSQL, kind, id, userID, role, encoded, models.MemberActive, now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, models.NewConflictError(fmt.Sprintf("User is already a member of this %s", strings.ToLower(kind.Label())))
	}
	if err := syncTeamSize(tx, kind, id, now); err != nil {
		return nil, err
	}

	var member models.Member
	if err := tx.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", kind, id, userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *membershipRepository) Roster(ctx context.Context, kind models.EntityKind, id uint) (models.RosterInfo, error) {
	return loadRoster(readDB(r.db).WithContext(ctx), kind, id)
}

func (r *membershipRepository) ListMembers(ctx context.Context, kind models.EntityKind, id uint) ([]models.Member, error) {
	var members []models.Member
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("entity_kind = ? AND entity_id = ? AND status = ?", kind, id, models.MemberActive).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return members, nil
}

func (r *membershipRepository) RequiredSkills(ctx context.Context, kind models.EntityKind, id uint) ([]models.RequiredSkill, error) {
	var skills []models.RequiredSkill
	err := readDB(r.db).WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, id).
		Order("id ASC").
		Find(&skills).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return skills, nil
}

func isActiveMember(tx *gorm.DB, kind models.EntityKind, id, userID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.Member{}).
		Where("entity_kind = ? AND entity_id = ? AND user_id = ? AND status = ?", kind, id, userID, models.MemberActive).
		Count(&n).Error
	return n > 0, err
}

func (r *membershipRepository) IsActiveMember(ctx context.Context, kind models.EntityKind, id, userID uint) (bool, error) {
	ok, err := isActiveMember(readDB(r.db).WithContext(ctx), kind, id, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

func (r *membershipRepository) CreateJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	defer r.metrics.TrackQuery("join_request")()
	noun := strings.ToLower(req.EntityKind.Label())
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := isActiveMember(tx, req.EntityKind, req.EntityID, req.UserID)
		if err != nil {
			return err
		}
		if member {
			return models.NewConflictError("You are already a member of this " + noun)
		}
		var pending int64
		err = tx.Model(&models.JoinRequest{}).
			Where("entity_kind = ? AND entity_id = ? AND user_id = ? AND status = ?",
				req.EntityKind, req.EntityID, req.UserID, models.JoinRequestPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return models.NewConflictError("You already have a pending request for this " + noun)
		}
		req.Status = models.JoinRequestPending
		return tx.Create(req).Error
	})
	if isUniqueViolation(err) {
		return models.NewConflictError("You already have a pending request for this " + noun)
	}
	if err != nil {
		r.log.LogError(ctx, err, "create_join_request")
		return internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"join_request_id": req.ID, "kind": req.EntityKind, "entity_id": req.EntityID})
	return nil
}

func (r *membershipRepository) ListJoinRequests(ctx context.Context, kind models.EntityKind, id uint, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	db := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("entity_kind = ? AND entity_id = ?", kind, id)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var reqs []models.JoinRequest
	if err := db.Order("requested_at DESC, id DESC").Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

// settlePendingRequests accepts any pending request of a user who joined
// through a direct add.
func settlePendingRequests(tx *gorm.DB, kind models.EntityKind, id, userID uint, now time.Time) error {
	return tx.Model(&models.JoinRequest{}).
		Where("entity_kind = ? AND entity_id = ? AND user_id = ? AND status = ?", kind, id, userID, models.JoinRequestPending).
		Updates(map[string]interface{}{
			"status":           models.JoinRequestAccepted,
			"responded_at":     now,
			"response_message": "Added to the roster directly",
		}).Error
}

func (r *membershipRepository) RespondToJoinRequest(ctx context.Context, kind models.EntityKind, id, requestID uint, accept bool, message string, now time.Time) (*models.JoinRequest, error) {
	defer r.metrics.TrackQuery("respond")()
	var req models.JoinRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Where("id = ? AND entity_kind = ? AND entity_id = ?", requestID, kind, id).
			First(&req).Error
		if err != nil {
			return notFoundOr(err, "Join request", requestID)
		}
		if req.Status != models.JoinRequestPending {
			return models.NewConflictError("Join request has already been " + string(req.Status))
		}

		req.Status = models.JoinRequestRejected
		if accept {
			req.Status = models.JoinRequestAccepted
		}
		req.RespondedAt = &now
		req.ResponseMessage = message
		err = tx.Model(&req).Updates(map[string]interface{}{
			"status":           req.Status,
			"responded_at":     now,
			"response_message": message,
		}).Error
		if err != nil {
			return err
		}
		if !accept {
			return nil
		}
		// The requester may have been added directly while the request waited.
		active, err := isActiveMember(tx, kind, id, req.UserID)
		if err != nil || active {
			return err
		}
		_, err = addMember(tx, kind, id, req.UserID, models.RoleMember, req.Skills, now)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "respond_join_request")
		return nil, internal(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"join_request_id": req.ID, "status": req.Status})
	return &req, nil
}

func (r *membershipRepository) AddMember(ctx context.Context, kind models.EntityKind, id, userID uint, role string, skills []string, now time.Time) (*models.Member, error) {
	var member *models.Member
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if member, err = addMember(tx, kind, id, userID, role, skills, now); err != nil {
			return err
		}
		return settlePendingRequests(tx, kind, id, userID, now)
	})
	if err != nil {
		r.log.LogError(ctx, err, "add_member")
		return nil, internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"kind": kind, "entity_id": id, "user_id": userID})
	return member, nil
}

func (r *membershipRepository) RemoveMember(ctx context.Context, kind models.EntityKind, id, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roster, err := loadRoster(lockForUpdate(tx), kind, id)
		if err != nil {
			return err
		}
		if roster.ManagerID == userID {
			role := "leader"
			if kind == models.KindProject {
				role = "owner"
			}
			return models.NewValidationError(fmt.Sprintf("The %s %s cannot be removed", strings.ToLower(kind.Label()), role))
		}
		res := tx.Where("entity_kind = ? AND entity_id = ? AND user_id = ?", kind, id, userID).Delete(&models.Member{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Member", userID)
		}
		return syncTeamSize(tx, kind, id, time.Now().UTC())
	})
	if err != nil {
		r.log.LogError(ctx, err, "remove_member")
		return internal(err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"kind": kind, "entity_id": id, "user_id": userID})
	return nil
}

func skillsByEntity(db *gorm.DB, kind models.EntityKind, ids []uint) (map[uint][]models.RequiredSkill, error) {
	out := make(map[uint][]models.RequiredSkill, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.RequiredSkill
	err := db.Where("entity_kind = ? AND entity_id IN ?", kind, ids).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.EntityID] = append(out[s.EntityID], s)
	}
	return out, nil
}

// skillFilter matches entities requiring a skill containing the given text.
func skillFilter(table string, kind models.EntityKind, skill string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".id IN (SELECT entity_id FROM required_skills WHERE entity_kind = ? AND "+ilike("skill")+")",
			kind, containsPattern(skill))
	}
}
