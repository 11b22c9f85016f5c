package repository

import (
	"context"
	"testing"
	"time"

	"collegeconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func activeMembers(t *testing.T, db *gorm.DB, kind models.EntityKind, id uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Member{}).
		Where("entity_kind = ? AND entity_id = ? AND status = ?", kind, id, models.MemberActive).
		Count(&n).Error)
	return n
}

func newJoinRequest(kind models.EntityKind, id, userID uint) *models.JoinRequest {
	return &models.JoinRequest{
		EntityKind:  kind,
		EntityID:    id,
		UserID:      userID,
		Message:     "Let me in",
		Skills:      []string{"Go"},
		RequestedAt: time.Now().UTC(),
	}
}

func TestMembership_JoinAcceptScenario(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	leader := createUser(t, db, "IIT Bombay")
	joiner := createUser(t, db, "IIT Bombay")
	event := createEvent(t, db, leader, time.Now().UTC().Add(72*time.Hour), 0)
	team := createTeam(t, db, leader, event, 2, 5)

	roster, err := repo.Roster(ctx, models.KindTeam, team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), roster.Size.Current)
	assert.Equal(t, leader.ID, roster.ManagerID)

	req := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	require.NoError(t, repo.CreateJoinRequest(ctx, req))
	assert.Equal(t, models.JoinRequestPending, req.Status)

	dup := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	assert.True(t, models.IsCode(repo.CreateJoinRequest(ctx, dup), models.CodeConflict))

	settled, err := repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, true, "Welcome", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestAccepted, settled.Status)
	require.NotNil(t, settled.RespondedAt)

	roster, err = repo.Roster(ctx, models.KindTeam, team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), roster.Size.Current)
	assert.Equal(t, activeMembers(t, db, models.KindTeam, team.ID), roster.Size.Current)

	member, err := repo.IsActiveMember(ctx, models.KindTeam, team.ID, joiner.ID)
	require.NoError(t, err)
	assert.True(t, member)

	_, err = repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, false, "", time.Now().UTC())
	assert.True(t, models.IsCode(err, models.CodeConflict), "a settled request cannot be answered again")

	again := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	assert.True(t, models.IsCode(repo.CreateJoinRequest(ctx, again), models.CodeConflict), "active members cannot request")
}

func TestMembership_RejectThenRequestAgain(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	leader := createUser(t, db, "BITS Hyderabad")
	joiner := createUser(t, db, "BITS Hyderabad")
	event := createEvent(t, db, leader, time.Now().UTC().Add(72*time.Hour), 0)
	team := createTeam(t, db, leader, event, 3, 5)

	req := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	require.NoError(t, repo.CreateJoinRequest(ctx, req))
	settled, err := repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, false, "Not now", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, settled.Status)
	assert.Equal(t, "Not now", settled.ResponseMessage)

	roster, err := repo.Roster(ctx, models.KindTeam, team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), roster.Size.Current)

	require.NoError(t, repo.CreateJoinRequest(ctx, newJoinRequest(models.KindTeam, team.ID, joiner.ID)))
	reqs, err := repo.ListJoinRequests(ctx, models.KindTeam, team.ID, "")
	require.NoError(t, err)
	assert.Len(t, reqs, 2)
}

func TestMembership_RespondUnknownRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()

	leader := createUser(t, db, "VJTI")
	event := createEvent(t, db, leader, time.Now().UTC().Add(time.Hour), 0)
	team := createTeam(t, db, leader, event, 2, 5)
	other := createTeam(t, db, leader, event, 2, 5)

	joiner := createUser(t, db, "VJTI")
	req := newJoinRequest(models.KindTeam, other.ID, joiner.ID)
	require.NoError(t, repo.CreateJoinRequest(ctx, req))

	_, err := repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, true, "", time.Now().UTC())
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestMembership_AddAndRemoveMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	leader := createUser(t, db, "IIT Kharagpur")
	a := createUser(t, db, "IIT Kharagpur")
	b := createUser(t, db, "IIT Kharagpur")
	event := createEvent(t, db, leader, now.Add(time.Hour), 0)
	team := createTeam(t, db, leader, event, 2, 2)

	m, err := repo.AddMember(ctx, models.KindTeam, team.ID, a.ID, models.RoleMember, []string{"SQL"}, now)
	require.NoError(t, err)
	assert.Equal(t, models.MemberActive, m.Status)
	assert.Equal(t, []string{"SQL"}, m.Skills)

	_, err = repo.AddMember(ctx, models.KindTeam, team.ID, a.ID, models.RoleMember, nil, now)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	_, err = repo.AddMember(ctx, models.KindTeam, team.ID, b.ID, models.RoleMember, nil, now)
	assert.True(t, models.IsCode(err, models.CodeValidation), "max reached")

	err = repo.RemoveMember(ctx, models.KindTeam, team.ID, leader.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	require.NoError(t, repo.RemoveMember(ctx, models.KindTeam, team.ID, a.ID))
	assert.True(t, models.IsCode(repo.RemoveMember(ctx, models.KindTeam, team.ID, a.ID), models.CodeNotFound))

	roster, err := repo.Roster(ctx, models.KindTeam, team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), roster.Size.Current)
	assert.Equal(t, activeMembers(t, db, models.KindTeam, team.ID), roster.Size.Current)

	members, err := repo.ListMembers(ctx, models.KindTeam, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleLeader, members[0].Role)
}

func TestMembership_ProjectRosterIsSeparate(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	projects := NewProjectRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "IIIT Delhi")
	p := &models.Project{
		Title:       "Campus map",
		Description: "Indoor navigation for campus",
		OwnerID:     owner.ID,
		Type:        "mobile-app",
		Status:      models.ProjectStatusPlanning,
		Visibility:  models.VisibilityPublic,
		TeamSize:    models.TeamSize{Required: 3},
	}
	require.NoError(t, projects.Create(ctx, p, nil))

	roster, err := repo.Roster(ctx, models.KindProject, p.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, roster.ManagerID)
	assert.Equal(t, int64(1), roster.Size.Current)

	_, err = repo.Roster(ctx, models.KindTeam, p.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	joiner := createUser(t, db, "IIIT Delhi")
	_, err = repo.AddMember(ctx, models.KindProject, p.ID, joiner.ID, models.RoleMember, nil, time.Now().UTC())
	require.NoError(t, err)

	got, err := projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TeamSize.Current)
	assert.Len(t, got.Members, 2)
}

func TestMembership_DirectAddSettlesPendingRequest(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	leader := createUser(t, db, "NIT Trichy")
	joiner := createUser(t, db, "NIT Trichy")
	event := createEvent(t, db, leader, now.Add(48*time.Hour), 0)
	team := createTeam(t, db, leader, event, 2, 4)

	req := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	require.NoError(t, repo.CreateJoinRequest(ctx, req))

	_, err := repo.AddMember(ctx, models.KindTeam, team.ID, joiner.ID, models.RoleMember, nil, now)
	require.NoError(t, err)

	var stored models.JoinRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, models.JoinRequestAccepted, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	_, err = repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, true, "", now)
	assert.True(t, models.IsCode(err, models.CodeConflict), "already settled")
	assert.Equal(t, int64(2), activeMembers(t, db, models.KindTeam, team.ID))
}

func TestMembership_AcceptAfterDirectAdd(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	leader := createUser(t, db, "NIT Surathkal")
	joiner := createUser(t, db, "NIT Surathkal")
	event := createEvent(t, db, leader, now.Add(48*time.Hour), 0)
	team := createTeam(t, db, leader, event, 2, 4)

	_, err := repo.AddMember(ctx, models.KindTeam, team.ID, joiner.ID, models.RoleMember, nil, now)
	require.NoError(t, err)

	// A pending row left behind by an older write path.
	req := newJoinRequest(models.KindTeam, team.ID, joiner.ID)
	req.Status = models.JoinRequestPending
	require.NoError(t, db.Create(req).Error)

	settled, err := repo.RespondToJoinRequest(ctx, models.KindTeam, team.ID, req.ID, true, "Welcome", now)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestAccepted, settled.Status)

	var stored models.JoinRequest
	require.NoError(t, db.First(&stored, req.ID).Error)
	assert.Equal(t, models.JoinRequestAccepted, stored.Status)
	assert.Equal(t, int64(2), activeMembers(t, db, models.KindTeam, team.ID))
}
