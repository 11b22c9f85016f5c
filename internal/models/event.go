package models

import (
	"math"
	"time"
)

// EventType classifies an event.
type EventType string

const (
	EventHackathon   EventType = "hackathon"
	EventConference  EventType = "conference"
	EventWorkshop    EventType = "workshop"
	EventTechTalk    EventType = "tech-talk"
	EventCompetition EventType = "competition"
	EventMeetup      EventType = "meetup"
	EventWebinar     EventType = "webinar"
	EventSeminar     EventType = "seminar"
	EventTraining    EventType = "training"
	EventOther       EventType = "other"
)

// EventTypes lists every accepted event type.
var EventTypes = []EventType{
	EventHackathon, EventConference, EventWorkshop, EventTechTalk, EventCompetition,
	EventMeetup, EventWebinar, EventSeminar, EventTraining, EventOther,
}

// OrganizerTypes lists the accepted organizer kinds.
var OrganizerTypes = []string{"college", "company", "student-club", "individual", "organization"}

// LocationTypes lists the accepted location kinds.
var LocationTypes = []string{"online", "offline", "hybrid"}

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// ParticipantStatus is the state of one registration.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantConfirmed  ParticipantStatus = "confirmed"
	ParticipantAttended   ParticipantStatus = "attended"
	ParticipantCancelled  ParticipantStatus = "cancelled"
)

// Registration status values derived at read time.
const (
	RegistrationOpen    = "open"
	RegistrationFull    = "full"
	RegistrationOngoing = "ongoing"
	RegistrationClosed  = "closed"
)

// EventLocation is where an event takes place.
type EventLocation struct {
	Type       string `gorm:"type:varchar(10);not null;default:'offline'" json:"type"`
	Venue      string `gorm:"size:200" json:"venue,omitempty"`
	City       string `gorm:"size:100;index" json:"city,omitempty"`
	State      string `gorm:"size:100" json:"state,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
	OnlineLink string `gorm:"size:500" json:"onlineLink,omitempty"`
}

// EventRegistration holds registration settings. CurrentParticipants is
// recomputed from event_participants on every registration change.
type EventRegistration struct {
	IsRequired          bool    `gorm:"not null" json:"isRequired"`
	IsFree              bool    `gorm:"not null" json:"isFree"`
	Fee                 float64 `gorm:"default:0" json:"fee"`
	MaxParticipants     int64   `gorm:"default:0" json:"maxParticipants"`
	CurrentParticipants int64   `gorm:"default:0" json:"currentParticipants"`
}

// Event is a hackathon, workshop, talk or similar gathering.
type Event struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	Name                 string            `gorm:"size:200;not null" json:"name"`
	Description          string            `gorm:"size:2000;not null" json:"description"`
	Type                 EventType         `gorm:"type:varchar(20);not null;index" json:"type"`
	OrganizerID          uint              `gorm:"not null;index" json:"organizerId"`
	OrganizerName        string            `gorm:"size:100" json:"organizerName"`
	OrganizerType        string            `gorm:"type:varchar(20);default:'individual'" json:"organizerType"`
	StartDate            time.Time         `gorm:"not null;index" json:"startDate"`
	EndDate              time.Time         `gorm:"not null" json:"endDate"`
	RegistrationDeadline *time.Time        `json:"registrationDeadline,omitempty"`
	Location             EventLocation     `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Registration         EventRegistration `gorm:"embedded;embeddedPrefix:registration_" json:"registration"`
	Status               EventStatus       `gorm:"type:varchar(20);not null;default:'published';index" json:"status"`
	Tags                 []string          `gorm:"type:text;serializer:json" json:"tags"`
	Views                int64             `gorm:"not null;default:0" json:"views"`
	DurationDays         int               `gorm:"-" json:"durationDays"`
	RegistrationStatus   string            `gorm:"-" json:"registrationStatus"`
	SpotsRemaining       *int64            `gorm:"-" json:"spotsRemaining"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

// EventParticipant is one user's registration for an event.
type EventParticipant struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	EventID      uint              `gorm:"not null;uniqueIndex:idx_event_participants_event_user" json:"eventId"`
	UserID       uint              `gorm:"not null;uniqueIndex:idx_event_participants_event_user;index" json:"userId"`
	User         *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status       ParticipantStatus `gorm:"type:varchar(20);not null;default:'registered'" json:"status"`
	TeamID       *uint             `json:"teamId,omitempty"`
	RegisteredAt time.Time         `gorm:"not null" json:"registeredAt"`
}

// EventDurationDays rounds the event span up to whole days.
func EventDurationDays(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// Derive fills the read-time fields for instant now.
func (e *Event) Derive(now time.Time) {
	e.DurationDays = EventDurationDays(e.StartDate, e.EndDate)
	e.RegistrationStatus = e.registrationStatus(now)
	e.SpotsRemaining = nil
	if e.Registration.MaxParticipants > 0 {
		left := e.Registration.MaxParticipants - e.Registration.CurrentParticipants
		if left < 0 {
			left = 0
		}
		e.SpotsRemaining = &left
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
}

func (e *Event) registrationStatus(now time.Time) string {
	if e.Status == EventStatusCancelled || e.Status == EventStatusDraft {
		return RegistrationClosed
	}
	if !now.Before(e.StartDate) && !now.After(e.EndDate) {
		return RegistrationOngoing
	}
	if now.After(e.EndDate) {
		return RegistrationClosed
	}
	if e.RegistrationDeadline != nil && !now.Before(*e.RegistrationDeadline) {
		return RegistrationClosed
	}
	if e.Registration.MaxParticipants > 0 && e.Registration.CurrentParticipants >= e.Registration.MaxParticipants {
		return RegistrationFull
	}
	return RegistrationOpen
}
