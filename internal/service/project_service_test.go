package service

import (
	"context"
	"testing"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateProject_Validation(t *testing.T) {
	s := newStack(t)
	owner := createUser(t, s.db)
	svc := NewProjectService(s.projects, nil)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)

	cases := map[string]CreateProjectInput{
		"missing title":  {OwnerID: owner.ID, Description: "d", Type: "iot", Required: 2},
		"unknown type":   {OwnerID: owner.ID, Title: "t", Description: "d", Type: "crypto", Required: 2},
		"unknown domain": {OwnerID: owner.ID, Title: "t", Description: "d", Type: "iot", Domain: "space", Required: 2},
		"team too big":   {OwnerID: owner.ID, Title: "t", Description: "d", Type: "iot", Required: 51},
		"ends early":     {OwnerID: owner.ID, Title: "t", Description: "d", Type: "iot", Required: 2, StartDate: &start, EndDate: &end},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateProject(context.Background(), in)
			assertValidationError(t, err)
		})
	}
}

func TestProjectService_Milestones(t *testing.T) {
	s := newStack(t)
	owner := createUser(t, s.db)
	other := createUser(t, s.db)
	svc := NewProjectService(s.projects, nil)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, CreateProjectInput{
		OwnerID:        owner.ID,
		Title:          "Attendance tracker",
		Description:    "QR based attendance for labs",
		Type:           "web-development",
		Domain:         "education",
		Required:       3,
		Tags:           []string{"React", "go"},
		RequiredSkills: []models.RequiredSkill{{Skill: "React"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPlanning, project.Status)
	assert.Equal(t, int64(2), project.AvailableSpots)
	assert.Equal(t, []string{"react", "go"}, project.Tags)
	assert.Empty(t, project.Milestones)

	_, err = svc.AddMilestone(ctx, MilestoneInput{ProjectID: project.ID, ActorID: other.ID, Title: "MVP"})
	assertForbiddenError(t, err)

	first, err := svc.AddMilestone(ctx, MilestoneInput{ProjectID: project.ID, ActorID: owner.ID, Title: "MVP"})
	require.NoError(t, err)
	_, err = svc.AddMilestone(ctx, MilestoneInput{ProjectID: project.ID, ActorID: owner.ID, Title: "Pilot in CS lab"})
	require.NoError(t, err)

	updated, err := svc.CompleteMilestone(ctx, project.ID, first.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), updated.Progress)

	_, err = svc.CompleteMilestone(ctx, project.ID, 9999, owner.ID)
	assertNotFoundError(t, err)
}

func TestProjectService_UpdateCancelAndList(t *testing.T) {
	s := newStack(t)
	owner := createUser(t, s.db)
	admin := createUser(t, s.db)
	other := createUser(t, s.db)
	svc := NewProjectService(s.projects, admins(admin.ID))
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, CreateProjectInput{
		OwnerID: owner.ID, Title: "Mess menu bot", Description: "Daily menu on chat", Type: "other", Required: 2,
	})
	require.NoError(t, err)

	active := models.ProjectStatusActive
	_, err = svc.UpdateProject(ctx, UpdateProjectInput{ProjectID: project.ID, ActorID: other.ID, Status: &active})
	assertForbiddenError(t, err)

	updated, err := svc.UpdateProject(ctx, UpdateProjectInput{ProjectID: project.ID, ActorID: admin.ID, Status: &active})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, updated.Status)

	viewed, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), viewed.Views)

	page, err := svc.ListProjects(ctx, repository.ProjectFilter{Status: models.ProjectStatusActive}, repository.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	assertForbiddenError(t, svc.CancelProject(ctx, project.ID, other.ID))
	require.NoError(t, svc.CancelProject(ctx, project.ID, owner.ID))

	got, err := svc.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCancelled, got.Status)

	_, err = svc.ListProjects(ctx, repository.ProjectFilter{Type: "crypto"}, repository.Paging{Page: 1, Limit: 10})
	assertValidationError(t, err)
}
