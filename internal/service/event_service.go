package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

type EventService struct {
	eventRepo     repository.EventRepository
	userRepo      repository.UserRepository
	teamRepo      repository.TeamRepository
	membership    repository.MembershipRepository
	notifications *NotificationService
	publisher     Publisher
	isAdmin       AdminCheck
}

type CreateEventInput struct {
	OrganizerID          uint
	Name                 string
	Description          string
	Type                 models.EventType
	OrganizerType        string
	StartDate            time.Time
	EndDate              time.Time
	RegistrationDeadline *time.Time
	Location             models.EventLocation
	Registration         models.EventRegistration
	Status               models.EventStatus
	Tags                 []string
}

// UpdateEventInput carries a partial update. Nil fields are left alone.
// The participant count is never writable.
type UpdateEventInput struct {
	EventID              uint
	ActorID              uint
	Name                 *string
	Description          *string
	Type                 *models.EventType
	OrganizerType        *string
	StartDate            *time.Time
	EndDate              *time.Time
	RegistrationDeadline *time.Time
	Location             *models.EventLocation
	IsRequired           *bool
	IsFree               *bool
	Fee                  *float64
	MaxParticipants      *int64
	Status               *models.EventStatus
	Tags                 []string
}

type RegisterInput struct {
	EventID uint
	UserID  uint
	TeamID  *uint
}

var eventStatuses = []models.EventStatus{
	models.EventStatusDraft, models.EventStatusPublished, models.EventStatusOngoing,
	models.EventStatusCompleted, models.EventStatusCancelled,
}

func NewEventService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	membership repository.MembershipRepository,
	notifications *NotificationService,
	publisher Publisher,
	isAdmin AdminCheck,
) *EventService {
	return &EventService{
		eventRepo:     eventRepo,
		userRepo:      userRepo,
		teamRepo:      teamRepo,
		membership:    membership,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		isAdmin:       isAdmin,
	}
}

func validateEvent(errs *validation.Errors, e *models.Event) {
	errs.Length("name", e.Name, 1, 200, "Event name is required and cannot exceed 200 characters")
	errs.Length("description", e.Description, 1, 2000, "Description is required and cannot exceed 2000 characters")
	validation.OneOf(errs, "type", e.Type, models.EventTypes, false, "Invalid event type")
	validation.OneOf(errs, "organizerType", e.OrganizerType, models.OrganizerTypes, false, "Invalid organizer type")
	validation.OneOf(errs, "status", e.Status, eventStatuses, false, "Invalid status")
	errs.Require(!e.StartDate.IsZero(), "startDate", "Start date is required")
	errs.Require(e.EndDate.After(e.StartDate), "endDate", "End date must be after the start date")
	if e.RegistrationDeadline != nil {
		errs.Require(!e.RegistrationDeadline.After(e.StartDate), "registrationDeadline", "Registration deadline cannot be after the start date")
	}

	loc := e.Location
	validation.OneOf(errs, "location.type", loc.Type, models.LocationTypes, false, "Invalid location type")
	if loc.Type == "online" || loc.Type == "hybrid" {
		errs.Require(strings.TrimSpace(loc.OnlineLink) != "", "location.onlineLink", "Online events need a link")
	}
	if loc.Type == "offline" || loc.Type == "hybrid" {
		errs.Require(strings.TrimSpace(loc.City) != "", "location.city", "In-person events need a city")
	}

	reg := e.Registration
	errs.Require(reg.Fee >= 0, "registration.fee", "Fee cannot be negative")
	errs.Require(reg.IsFree || reg.Fee > 0, "registration.fee", "Paid events need a fee")
	errs.Require(reg.MaxParticipants >= 0, "registration.maxParticipants", "Maximum participants cannot be negative")
	errs.Tags("tags", e.Tags)
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.Status == "" {
		in.Status = models.EventStatusPublished
	}
	if in.OrganizerType == "" {
		in.OrganizerType = "individual"
	}
	if in.Location.Type == "" {
		in.Location.Type = "offline"
	}
	organizer, err := s.userRepo.GetByID(ctx, in.OrganizerID)
	if err != nil {
		return nil, err
	}

	reg := in.Registration
	reg.CurrentParticipants = 0
	if reg.IsFree {
		reg.Fee = 0
	}
	event := &models.Event{
		Name:                 strings.TrimSpace(in.Name),
		Description:          strings.TrimSpace(in.Description),
		Type:                 in.Type,
		OrganizerID:          organizer.ID,
		OrganizerName:        organizer.Name,
		OrganizerType:        in.OrganizerType,
		StartDate:            in.StartDate.UTC(),
		EndDate:              in.EndDate.UTC(),
		RegistrationDeadline: in.RegistrationDeadline,
		Location:             in.Location,
		Registration:         reg,
		Status:               in.Status,
		Tags:                 validation.NormalizeTags(in.Tags),
	}

	var errs validation.Errors
	validateEvent(&errs, event)
	validation.OneOf(&errs, "status", event.Status, []models.EventStatus{models.EventStatusDraft, models.EventStatusPublished}, false, "Events can only be created as draft or published")
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	event.Derive(utcNow())
	return event, nil
}

// GetEvent returns the event and counts a view.
func (s *EventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	event.Views++
	event.Derive(utcNow())
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context, f repository.EventFilter, p repository.Paging) (models.Page[models.Event], error) {
	var errs validation.Errors
	validation.OneOf(&errs, "type", f.Type, models.EventTypes, true, "Invalid event type")
	validation.OneOf(&errs, "status", f.Status, eventStatuses, true, "Invalid status")
	if err := errs.Err(); err != nil {
		return models.Page[models.Event]{}, err
	}
	now := utcNow()
	events, total, err := s.eventRepo.List(ctx, f, p, now)
	if err != nil {
		return models.Page[models.Event]{}, err
	}
	for i := range events {
		events[i].Derive(now)
	}
	return repository.NewPage(events, total, p), nil
}

func (s *EventService) UpdateEvent(ctx context.Context, in UpdateEventInput) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, event.OrganizerID, in.ActorID, "Only the organizer can update this event"); err != nil {
		return nil, err
	}

	if in.Name != nil {
		event.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		event.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		event.Type = *in.Type
	}
	if in.OrganizerType != nil {
		event.OrganizerType = *in.OrganizerType
	}
	if in.StartDate != nil {
		event.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		event.EndDate = in.EndDate.UTC()
	}
	if in.RegistrationDeadline != nil {
		event.RegistrationDeadline = in.RegistrationDeadline
	}
	if in.Location != nil {
		event.Location = *in.Location
	}
	if in.IsRequired != nil {
		event.Registration.IsRequired = *in.IsRequired
	}
	if in.IsFree != nil {
		event.Registration.IsFree = *in.IsFree
	}
	if in.Fee != nil {
		event.Registration.Fee = *in.Fee
	}
	if in.MaxParticipants != nil {
		event.Registration.MaxParticipants = *in.MaxParticipants
	}
	if in.Status != nil {
		event.Status = *in.Status
	}
	if in.Tags != nil {
		event.Tags = validation.NormalizeTags(in.Tags)
	}
	if event.Registration.IsFree {
		event.Registration.Fee = 0
	}

	var errs validation.Errors
	validateEvent(&errs, event)
	if capacity := event.Registration.MaxParticipants; capacity > 0 {
		errs.Require(capacity >= event.Registration.CurrentParticipants, "registration.maxParticipants",
			"Maximum participants cannot be below the current registrations")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	event.Derive(utcNow())
	return event, nil
}

// CancelEvent is the event delete. The event stays with status cancelled.
func (s *EventService) CancelEvent(ctx context.Context, id, actorID uint) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, event.OrganizerID, actorID, "Only the organizer can cancel this event"); err != nil {
		return err
	}
	return s.eventRepo.SetStatus(ctx, id, models.EventStatusCancelled)
}

// Register signs a user up while registration is open. With TeamID the
// user must be an active member of a team formed for this event.
func (s *EventService) Register(ctx context.Context, in RegisterInput) (*models.EventParticipant, error) {
	event, err := s.eventRepo.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	event.Derive(utcNow())
	// Capacity is checked under the row lock after the duplicate check, so a
	// full event still tells an existing registrant they are registered.
	switch event.RegistrationStatus {
	case models.RegistrationOpen, models.RegistrationFull:
	default:
		return nil, models.NewValidationError("Registration is closed for this event")
	}

	if in.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, *in.TeamID)
		if err != nil {
			return nil, err
		}
		if team.EventID != in.EventID {
			return nil, models.NewValidationError("Team is not registered for this event")
		}
		member, err := s.membership.IsActiveMember(ctx, models.KindTeam, team.ID, in.UserID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewForbiddenError("You are not a member of this team")
		}
	}

	participant, err := s.eventRepo.Register(ctx, in.EventID, in.UserID, in.TeamID, utcNow())
	if err != nil {
		return nil, err
	}
	s.notifications.notifyQuietly(ctx, &models.Notification{
		RecipientID:   in.UserID,
		Type:          models.NotifyEventRegistration,
		Title:         "Registration confirmed",
		Message:       fmt.Sprintf("You are registered for %s", truncate(event.Name, 450)),
		RelatedEntity: models.RelatedToEvent(event.ID),
	})
	s.publisher.PublishBroadcast(ctx, EventRegistrationUpdate, map[string]interface{}{"eventId": event.ID})
	return participant, nil
}

func (s *EventService) Unregister(ctx context.Context, eventID, userID uint) error {
	if err := s.eventRepo.Unregister(ctx, eventID, userID); err != nil {
		return err
	}
	s.publisher.PublishBroadcast(ctx, EventRegistrationUpdate, map[string]interface{}{"eventId": eventID})
	return nil
}

func (s *EventService) Participants(ctx context.Context, eventID uint, p repository.Paging) (models.Page[models.EventParticipant], error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return models.Page[models.EventParticipant]{}, err
	}
	items, total, err := s.eventRepo.ListParticipants(ctx, eventID, p)
	if err != nil {
		return models.Page[models.EventParticipant]{}, err
	}
	return repository.NewPage(items, total, p), nil
}
