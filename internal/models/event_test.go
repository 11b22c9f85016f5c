package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDurationDays(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, EventDurationDays(start, start.Add(3*time.Hour)))
	assert.Equal(t, 2, EventDurationDays(start, start.Add(36*time.Hour)))
	assert.Equal(t, 0, EventDurationDays(start, start))
}

func TestEvent_RegistrationStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	deadline := now.Add(-time.Hour)

	base := func() *Event {
		return &Event{
			Status:    EventStatusPublished,
			StartDate: now.Add(48 * time.Hour),
			EndDate:   now.Add(72 * time.Hour),
		}
	}

	e := base()
	e.Derive(now)
	assert.Equal(t, RegistrationOpen, e.RegistrationStatus)
	assert.Nil(t, e.SpotsRemaining)

	e = base()
	e.Registration.MaxParticipants = 2
	e.Registration.CurrentParticipants = 2
	e.Derive(now)
	assert.Equal(t, RegistrationFull, e.RegistrationStatus)
	require.NotNil(t, e.SpotsRemaining)
	assert.Equal(t, int64(0), *e.SpotsRemaining)

	e = base()
	e.RegistrationDeadline = &deadline
	e.Derive(now)
	assert.Equal(t, RegistrationClosed, e.RegistrationStatus)

	e = base()
	e.StartDate = now.Add(-time.Hour)
	e.Derive(now)
	assert.Equal(t, RegistrationOngoing, e.RegistrationStatus)

	e = base()
	e.Status = EventStatusCancelled
	e.Derive(now)
	assert.Equal(t, RegistrationClosed, e.RegistrationStatus)
}

func TestRosterDerivedValues(t *testing.T) {
	assert.Equal(t, int64(0), AvailableSpots(2, 3))
	assert.Equal(t, int64(1), AvailableSpots(3, 2))
	assert.Equal(t, int64(67), CompletionPercentage(2, 3))
	assert.Equal(t, int64(0), CompletionPercentage(2, 0))

	team := &Team{TeamSize: TeamSize{Current: 2, Required: 2, Max: 5}}
	team.Derive()
	assert.Equal(t, int64(0), team.AvailableSpots)
	assert.Equal(t, int64(100), team.CompletionPercentage)

	p := &Project{Milestones: []ProjectMilestone{{Completed: true}, {}, {}}}
	p.Derive()
	assert.Equal(t, int64(33), p.Progress)
	assert.Equal(t, int64(0), MilestoneProgress(nil))
}

func TestRosterInfo_AcceptingMembers(t *testing.T) {
	assert.True(t, RosterInfo{Kind: KindTeam, Status: string(TeamStatusForming)}.AcceptingMembers())
	assert.False(t, RosterInfo{Kind: KindTeam, Status: string(TeamStatusDisbanded)}.AcceptingMembers())
	assert.True(t, RosterInfo{Kind: KindProject, Status: string(ProjectStatusPlanning)}.AcceptingMembers())
	assert.False(t, RosterInfo{Kind: KindProject, Status: string(ProjectStatusCancelled)}.AcceptingMembers())

	info := RosterInfo{Size: TeamSize{Max: 3}}
	assert.True(t, info.Full(3))
	assert.False(t, info.Full(2))
	assert.False(t, RosterInfo{}.Full(100))
}
