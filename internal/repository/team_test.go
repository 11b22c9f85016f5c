package repository

import (
	"context"
	"testing"
	"time"

	"collegeconnect/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamRepository_CreateSeatsLeader(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	leader := createUser(t, db, "IIT Patna")
	event := createEvent(t, db, leader, time.Now().UTC().Add(time.Hour), 0)
	team := createTeam(t, db, leader, event, 4, 1)

	got, err := repo.GetByID(ctx, team.ID)
	require.NoError(t, err)
	got.Derive()
	assert.Equal(t, int64(1), got.TeamSize.Current)
	assert.Equal(t, int64(3), got.AvailableSpots)
	assert.Equal(t, int64(25), got.CompletionPercentage)
	require.Len(t, got.Members, 1)
	assert.Equal(t, models.RoleLeader, got.Members[0].Role)
	require.Len(t, got.RequiredSkills, 1)
	assert.Equal(t, "Go", got.RequiredSkills[0].Skill)
	require.NotNil(t, got.Event)
	assert.Equal(t, event.ID, got.Event.ID)
}

func TestTeamRepository_ListVisibilityAndSkill(t *testing.T) {
	db := newTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()
	page := Paging{Page: 1, Limit: 20}

	leader := createUser(t, db, "IIT Jodhpur")
	outsider := createUser(t, db, "IIT Jodhpur")
	event := createEvent(t, db, leader, time.Now().UTC().Add(time.Hour), 0)
	public := createTeam(t, db, leader, event, 3, 5)
	hidden := createTeam(t, db, leader, event, 3, 5)
	hidden.Visibility = models.VisibilityPrivate
	require.NoError(t, repo.Update(ctx, hidden, []models.RequiredSkill{{Skill: "Rust", Level: models.SkillAdvanced, IsRequired: true}}))

	teams, total, err := repo.List(ctx, TeamFilter{ViewerID: outsider.ID}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, public.ID, teams[0].ID)

	_, total, err = repo.List(ctx, TeamFilter{ViewerID: leader.ID}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	teams, total, err = repo.List(ctx, TeamFilter{ViewerID: leader.ID, Skill: "rus"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, hidden.ID, teams[0].ID)
	require.Len(t, teams[0].RequiredSkills, 1)
	assert.Equal(t, "Rust", teams[0].RequiredSkills[0].Skill)

	require.NoError(t, repo.SetStatus(ctx, public.ID, models.TeamStatusDisbanded))
	_, total, err = repo.List(ctx, TeamFilter{ViewerID: outsider.ID, Status: models.TeamStatusForming}, page)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProjectRepository_Milestones(t *testing.T) {
	db := newTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := createUser(t, db, "IIT Mandi")
	p := &models.Project{
		Title:       "Mess menu app",
		Description: "Know what is for dinner",
		OwnerID:     owner.ID,
		Type:        "web-development",
		Status:      models.ProjectStatusActive,
		Visibility:  models.VisibilityPublic,
		TeamSize:    models.TeamSize{Required: 2},
	}
	require.NoError(t, repo.Create(ctx, p, []models.RequiredSkill{{Skill: "Vue", Level: models.SkillBeginner}}))

	var ms []*models.ProjectMilestone
	for _, title := range []string{"Design", "Build", "Ship"} {
		m := &models.ProjectMilestone{ProjectID: p.ID, Title: title}
		require.NoError(t, repo.AddMilestone(ctx, m))
		ms = append(ms, m)
	}
	assert.True(t, models.IsCode(repo.AddMilestone(ctx, &models.ProjectMilestone{ProjectID: 999, Title: "x"}), models.CodeNotFound))

	done, err := repo.CompleteMilestone(ctx, p.ID, ms[0].ID, now)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	_, err = repo.CompleteMilestone(ctx, p.ID, ms[0].ID, now)
	require.NoError(t, err)
	_, err = repo.CompleteMilestone(ctx, 999, ms[1].ID, now)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.Derive()
	assert.Equal(t, int64(33), got.Progress)
	assert.Equal(t, int64(1), got.AvailableSpots)

	list, total, err := repo.List(ctx, ProjectFilter{Skill: "vue", Type: "web-development"}, Paging{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list[0].Milestones, 3)
}
