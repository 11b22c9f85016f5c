package server

import (
	"net/http"
	"testing"

	"collegeconnect/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTeam(t *testing.T, env *testEnv, leader testUser, eventID uint, maxSize int64) models.Team {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/api/teams", leader.Token, fiber.Map{
		"name":        "Null Pointers",
		"description": "Looking for a frontend person",
		"event":       eventID,
		"teamSize":    fiber.Map{"required": 2, "max": maxSize},
		"tags":        []string{"web"},
		"requiredSkills": []fiber.Map{
			{"skill": "react", "level": "intermediate", "isRequired": true},
		},
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var team models.Team
	resp.decode(t, &team)
	return team
}

func TestCreateTeam(t *testing.T) {
	env := newTestEnv(t)
	leader := env.signup(t, "COEP")
	event := createTestEvent(t, env, leader, "Team hack", 0)

	resp := env.do(t, http.MethodPost, "/api/teams", leader.Token, fiber.Map{
		"name":        "Orphans",
		"description": "No event attached",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = env.do(t, http.MethodPost, "/api/teams", leader.Token, fiber.Map{
		"name":        "Ghosts",
		"description": "Event does not exist",
		"event":       9999,
		"teamSize":    fiber.Map{"required": 2, "max": 4},
	})
	assert.Equal(t, http.StatusNotFound, resp.Status)

	team := createTestTeam(t, env, leader, event.ID, 3)
	assert.Equal(t, leader.ID, team.LeaderID)
	assert.Equal(t, models.TeamStatusForming, team.Status)
	assert.Equal(t, int64(1), team.TeamSize.Current)
	require.Len(t, team.Members, 1)
	assert.Equal(t, models.RoleLeader, team.Members[0].Role)
	require.Len(t, team.RequiredSkills, 1)
	assert.Equal(t, "react", team.RequiredSkills[0].Skill)

	resp = env.do(t, http.MethodGet, "/api/teams?event="+itoa(event.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int64(1), resp.Total)

	resp = env.do(t, http.MethodGet, "/api/teams?skill=react", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int64(1), resp.Total)
}

func TestTeamJoinRequestLifecycle(t *testing.T) {
	env := newTestEnv(t)
	leader := env.signup(t, "COEP")
	applicant := env.signup(t, "COEP")
	latecomer := env.signup(t, "VIT Pune")
	outsider := env.signup(t, "VIT Pune")

	event := createTestEvent(t, env, leader, "Team hack", 0)
	team := createTestTeam(t, env, leader, event.ID, 2)
	base := "/api/teams/" + itoa(team.ID)

	resp := env.do(t, http.MethodPost, base+"/join-requests", applicant.Token, fiber.Map{
		"message": "I write React all day",
		"skills":  []string{"react"},
	})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var request models.JoinRequest
	resp.decode(t, &request)
	assert.Equal(t, models.JoinRequestPending, request.Status)

	resp = env.do(t, http.MethodPost, base+"/join-requests", applicant.Token, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "You already have a pending request for this team", resp.Message)

	resp = env.do(t, http.MethodGet, base+"/join-requests", outsider.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodGet, base+"/join-requests?status=pending", leader.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var pending []models.JoinRequest
	resp.decode(t, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, applicant.ID, pending[0].UserID)

	resp = env.do(t, http.MethodGet, "/api/notifications", leader.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var notes []models.Notification
	resp.decode(t, &notes)
	require.NotEmpty(t, notes)
	assert.Equal(t, models.NotifyTeamJoinRequest, notes[0].Type)

	respond := base + "/join-requests/" + itoa(request.ID) + "/respond"
	resp = env.do(t, http.MethodPost, respond, leader.Token, fiber.Map{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = env.do(t, http.MethodPost, respond, outsider.Token, fiber.Map{"action": "accept"})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodPost, respond, leader.Token, fiber.Map{"action": "accept", "message": "Welcome"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	assert.Equal(t, "Join request accepted", resp.Message)

	resp = env.do(t, http.MethodPost, respond, leader.Token, fiber.Map{"action": "reject"})
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = env.do(t, http.MethodGet, base+"/members", "", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var members []models.Member
	resp.decode(t, &members)
	assert.Len(t, members, 2)

	resp = env.do(t, http.MethodPost, base+"/join-requests", applicant.Token, nil)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "You are already a member of this team", resp.Message)

	resp = env.do(t, http.MethodPost, base+"/join-requests", latecomer.Token, nil)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)
	var late models.JoinRequest
	resp.decode(t, &late)
	resp = env.do(t, http.MethodPost, base+"/join-requests/"+itoa(late.ID)+"/respond", leader.Token, fiber.Map{"action": "accept"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Team is full", resp.Message)

	resp = env.do(t, http.MethodPost, base+"/join-requests/"+itoa(late.ID)+"/respond", leader.Token, fiber.Map{"action": "reject"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Join request rejected", resp.Message)

	resp = env.do(t, http.MethodGet, "/api/notifications?status=all", latecomer.Token, nil)
	resp.decode(t, &notes)
	require.NotEmpty(t, notes)
	assert.Equal(t, models.NotifyTeamInvitation, notes[0].Type)
	assert.Equal(t, "Join request declined", notes[0].Title)
}

func TestTeamRosterChanges(t *testing.T) {
	env := newTestEnv(t)
	leader := env.signup(t, "COEP")
	member := env.signup(t, "COEP")
	other := env.signup(t, "COEP")

	event := createTestEvent(t, env, leader, "Roster hack", 0)
	team := createTestTeam(t, env, leader, event.ID, 4)
	base := "/api/teams/" + itoa(team.ID)

	resp := env.do(t, http.MethodPost, base+"/members", other.Token, fiber.Map{"userId": member.ID})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodPost, base+"/members", leader.Token, fiber.Map{"userId": member.ID, "role": "Leader"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = env.do(t, http.MethodPost, base+"/members", leader.Token, fiber.Map{"userId": member.ID, "role": "Designer"})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)

	resp = env.do(t, http.MethodPost, base+"/members", leader.Token, fiber.Map{"userId": member.ID})
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = env.do(t, http.MethodPost, "/api/events/"+itoa(event.ID)+"/register", other.Token, fiber.Map{"teamId": team.ID})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = env.do(t, http.MethodPost, "/api/events/"+itoa(event.ID)+"/register", member.Token, fiber.Map{"teamId": team.ID})
	require.Equal(t, http.StatusCreated, resp.Status, resp.Message)

	resp = env.do(t, http.MethodDelete, base+"/members/"+itoa(leader.ID), leader.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "The team leader cannot be removed", resp.Message)

	resp = env.do(t, http.MethodDelete, base+"/members/"+itoa(member.ID), member.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Left team successfully", resp.Message)

	resp = env.do(t, http.MethodDelete, base+"/members/"+itoa(member.ID), leader.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = env.do(t, http.MethodGet, base, "", nil)
	var refreshed models.Team
	resp.decode(t, &refreshed)
	assert.Equal(t, int64(1), refreshed.TeamSize.Current)

	resp = env.do(t, http.MethodDelete, base, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)
	resp = env.do(t, http.MethodDelete, base, leader.Token, nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = env.do(t, http.MethodPost, base+"/join-requests", other.Token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Team is not accepting new members", resp.Message)
}
