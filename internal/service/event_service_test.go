package service

import (
	"context"
	"testing"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEventService(s *stack, isAdmin AdminCheck) *EventService {
	return NewEventService(s.events, s.users, s.teams, s.membership, s.notifications, s.pub, isAdmin)
}

func validEventInput(organizerID uint) CreateEventInput {
	start := time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)
	return CreateEventInput{
		OrganizerID:  organizerID,
		Name:         "Winter Code Sprint",
		Description:  "Two days of building with mentors",
		Type:         models.EventHackathon,
		StartDate:    start,
		EndDate:      start.Add(48 * time.Hour),
		Location:     models.EventLocation{Type: "offline", Venue: "Main auditorium", City: "Chennai"},
		Registration: models.EventRegistration{IsRequired: true, IsFree: true, MaxParticipants: 2},
	}
}

func TestEventService_CreateEvent_Validation(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	svc := newEventService(s, nil)

	cases := map[string]func(*CreateEventInput){
		"unknown type":          func(in *CreateEventInput) { in.Type = "party" },
		"ends before start":     func(in *CreateEventInput) { in.EndDate = in.StartDate.Add(-time.Hour) },
		"deadline after start":  func(in *CreateEventInput) { d := in.StartDate.Add(time.Hour); in.RegistrationDeadline = &d },
		"online without link":   func(in *CreateEventInput) { in.Location = models.EventLocation{Type: "online"} },
		"offline without city":  func(in *CreateEventInput) { in.Location = models.EventLocation{Type: "offline"} },
		"paid without fee":      func(in *CreateEventInput) { in.Registration.IsFree = false },
		"negative capacity":     func(in *CreateEventInput) { in.Registration.MaxParticipants = -1 },
		"created as ongoing":    func(in *CreateEventInput) { in.Status = models.EventStatusOngoing },
		"bad organizer type":    func(in *CreateEventInput) { in.OrganizerType = "cult" },
		"missing name":          func(in *CreateEventInput) { in.Name = " " },
		"unknown location type": func(in *CreateEventInput) { in.Location.Type = "moon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validEventInput(organizer.ID)
			mutate(&in)
			_, err := svc.CreateEvent(context.Background(), in)
			assertValidationError(t, err)
		})
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	svc := newEventService(s, nil)

	in := validEventInput(organizer.ID)
	in.Registration = models.EventRegistration{IsFree: false, Fee: 250, CurrentParticipants: 40}
	in.Tags = []string{"Hackathon", "AI"}
	event, err := svc.CreateEvent(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, organizer.Name, event.OrganizerName)
	assert.Equal(t, "individual", event.OrganizerType)
	assert.Equal(t, models.EventStatusPublished, event.Status)
	assert.Equal(t, int64(0), event.Registration.CurrentParticipants)
	assert.Equal(t, []string{"hackathon", "ai"}, event.Tags)
	assert.Equal(t, models.RegistrationOpen, event.RegistrationStatus)
	assert.Equal(t, 2, event.DurationDays)
	assert.Nil(t, event.SpotsRemaining)

	stored, err := s.events.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.False(t, stored.Registration.IsFree)
	assert.Equal(t, 250.0, stored.Registration.Fee)
}

func TestEventService_Registration(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	first := createUser(t, s.db)
	second := createUser(t, s.db)
	svc := newEventService(s, nil)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validEventInput(organizer.ID))
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: first.ID})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: first.ID})
	assertAppError(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: organizer.ID})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: second.ID})
	assert.Equal(t, "Event is full", assertAppError(t, err, models.CodeValidation).Message)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: first.ID})
	assert.Equal(t, "You are already registered for this event",
		assertAppError(t, err, models.CodeConflict).Message, "duplicate wins over capacity")

	got, err := svc.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Registration.CurrentParticipants)
	assert.Equal(t, models.RegistrationFull, got.RegistrationStatus)
	require.NotNil(t, got.SpotsRemaining)
	assert.Equal(t, int64(0), *got.SpotsRemaining)

	notes := notificationsFor(t, s.db, first.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyEventRegistration, notes[0].Type)
	s.pub.AssertCalled(t, "PublishBroadcast", EventRegistrationUpdate, mock.Anything)

	require.NoError(t, svc.Unregister(ctx, event.ID, first.ID))
	assertNotFoundError(t, svc.Unregister(ctx, event.ID, first.ID))

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: second.ID})
	require.NoError(t, err)

	participants, err := svc.Participants(ctx, event.ID, repository.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), participants.Total)
}

func TestEventService_RegistrationClosed(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	user := createUser(t, s.db)
	svc := newEventService(s, nil)
	ctx := context.Background()

	in := validEventInput(organizer.ID)
	past := time.Now().UTC().Add(-time.Hour)
	in.RegistrationDeadline = &past
	event, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationClosed, event.RegistrationStatus)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: user.ID})
	assert.Equal(t, "Registration is closed for this event", assertAppError(t, err, models.CodeValidation).Message)

	draft := validEventInput(organizer.ID)
	draft.Status = models.EventStatusDraft
	drafted, err := svc.CreateEvent(ctx, draft)
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{EventID: drafted.ID, UserID: user.ID})
	assertValidationError(t, err)
}

func TestEventService_TeamRegistration(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	leader := createUser(t, s.db)
	outsider := createUser(t, s.db)
	svc := newEventService(s, nil)
	ctx := context.Background()

	in := validEventInput(organizer.ID)
	in.Registration.MaxParticipants = 0
	event, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)

	teams := NewTeamService(s.teams, s.events, s.membership, nil)
	team, err := teams.CreateTeam(ctx, CreateTeamInput{LeaderID: leader.ID, Name: "Lambda Llamas", Description: "FP fans", EventID: event.ID, Required: 2})
	require.NoError(t, err)
	elsewhere := s.createTeam(t, leader, 4)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: leader.ID, TeamID: &elsewhere.ID})
	assertValidationError(t, err)

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: outsider.ID, TeamID: &team.ID})
	assertForbiddenError(t, err)

	participant, err := svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: leader.ID, TeamID: &team.ID})
	require.NoError(t, err)
	require.NotNil(t, participant.TeamID)
	assert.Equal(t, team.ID, *participant.TeamID)
}

func TestEventService_UpdateAndCancel(t *testing.T) {
	s := newStack(t)
	organizer := createUser(t, s.db)
	other := createUser(t, s.db)
	attendee := createUser(t, s.db)
	svc := newEventService(s, nil)
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, validEventInput(organizer.ID))
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: attendee.ID})
	require.NoError(t, err)

	name := "Spring Code Sprint"
	_, err = svc.UpdateEvent(ctx, UpdateEventInput{EventID: event.ID, ActorID: other.ID, Name: &name})
	assertForbiddenError(t, err)

	zero := int64(0)
	updated, err := svc.UpdateEvent(ctx, UpdateEventInput{EventID: event.ID, ActorID: organizer.ID, Name: &name, MaxParticipants: &zero})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Nil(t, updated.SpotsRemaining)

	page, err := svc.ListEvents(ctx, repository.EventFilter{City: "chennai", Upcoming: true}, repository.Paging{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	_, err = svc.ListEvents(ctx, repository.EventFilter{Type: "party"}, repository.Paging{Page: 1, Limit: 10})
	assertValidationError(t, err)

	assertForbiddenError(t, svc.CancelEvent(ctx, event.ID, other.ID))
	require.NoError(t, svc.CancelEvent(ctx, event.ID, organizer.ID))

	_, err = svc.Register(ctx, RegisterInput{EventID: event.ID, UserID: other.ID})
	assertValidationError(t, err)
}
