package server

import (
	"net/http"
	"testing"

	"collegeconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, env *testEnv, owner testUser, title string) models.Project {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/projects", owner.Token, fiber.Map{
		"title":       title,
		"description": "Campus lost-and-found with image matching",
		"type":        "web-development",
		"teamSize":    fiber.Map{"required": 3},
		"links":       fiber.Map{"repository": "https://github.com/example/lost-found"},
		"requiredSkills": []fiber.Map{
			{"skill": "go", "level": "advanced", "isRequired": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var project models.Project
	resp.decode(t, &project)
	return project
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "IIT Bombay")

	resp := env.do(t, http.MethodPost, "/api/projects", owner.Token, fiber.Map{
		"title":       "Bad type",
		"description": "Unknown project type",
		"type":        "vaporware",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	project := createTestProject(t, env, owner, "Lost and Found")
	assert.Equal(t, owner.ID, project.OwnerID)
	assert.Equal(t, models.ProjectStatusPlanning, project.Status)
	assert.Equal(t, int64(1), project.TeamSize.Current)
	assert.Equal(t, int64(2), project.AvailableSpots)
	assert.Zero(t, project.Progress)
	require.Len(t, project.Members, 1)
	assert.Equal(t, models.RoleOwner, project.Members[0].Role)

	resp = env.do(t, http.MethodGet, "/api/projects?type=web-development&skill=go", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int64(1), resp.Total)

	resp = env.do(t, http.MethodGet, "/api/projects?domain=astrology", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestProjectMilestones(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "IIT Bombay")
	other := env.signup(t, "IIT Bombay")
	project := createTestProject(t, env, owner, "Milestone tracker")
	base := "/api/projects/" + itoa(project.ID)

	resp := env.do(t, http.MethodPost, base+"/milestones", other.Token, fiber.Map{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodPost, base+"/milestones", owner.Token, fiber.Map{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	var ids []uint
	for _, title := range []string{"Design schema", "Ship MVP"} {
		resp = env.do(t, http.MethodPost, base+"/milestones", owner.Token, fiber.Map{"title": title})
		require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
		var m models.ProjectMilestone
		resp.decode(t, &m)
		ids = append(ids, m.ID)
	}

	resp = env.do(t, http.MethodPost, base+"/milestones/"+itoa(ids[0])+"/complete", owner.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	var updated models.Project
	resp.decode(t, &updated)
	assert.Equal(t, int64(50), updated.Progress)
	require.Len(t, updated.Milestones, 2)

	resp = env.do(t, http.MethodPost, base+"/milestones/424242/complete", owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestProjectJoinAndCancel(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "IIT Bombay")
	applicant := env.signup(t, "IIT Bombay")
	project := createTestProject(t, env, owner, "Open source linter")
	base := "/api/projects/" + itoa(project.ID)

	resp := env.do(t, http.MethodPost, base+"/join-requests", applicant.Token, fiber.Map{"message": "Keen to help"})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var request models.JoinRequest
	resp.decode(t, &request)

	resp = env.do(t, http.MethodPost, base+"/join-requests/"+itoa(request.ID)+"/respond", owner.Token, fiber.Map{"action": "accept"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)

	resp = env.do(t, http.MethodGet, "/api/notifications", applicant.Token, nil)
	var notes []models.Notification
	resp.decode(t, &notes)
	require.NotEmpty(t, notes)
	assert.Equal(t, models.NotifyProjectRequestAccepted, notes[0].Type)

	resp = env.do(t, http.MethodGet, base, "", nil)
	var refreshed models.Project
	resp.decode(t, &refreshed)
	assert.Equal(t, int64(2), refreshed.TeamSize.Current)
	assert.Equal(t, int64(1), refreshed.AvailableSpots)

	resp = env.do(t, http.MethodPut, base, applicant.Token, fiber.Map{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodPut, base, owner.Token, fiber.Map{"status": "active"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)

	resp = env.do(t, http.MethodDelete, base, owner.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Project cancelled successfully", resp.Message)

	resp = env.do(t, http.MethodGet, base, "", nil)
	resp.decode(t, &refreshed)
	assert.Equal(t, models.ProjectStatusCancelled, refreshed.Status)
}
