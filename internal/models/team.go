package models

import (
	"math"
	"time"
)

// TeamStatus is the lifecycle state of a team.
type TeamStatus string

const (
	TeamStatusForming   TeamStatus = "forming"
	TeamStatusActive    TeamStatus = "active"
	TeamStatusCompleted TeamStatus = "completed"
	TeamStatusDisbanded TeamStatus = "disbanded"
)

// DefaultTeamMax is the roster cap when none is given.
const DefaultTeamMax = 5

// Team is a group of students forming around an event.
type Team struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Description    string          `gorm:"size:1000;not null" json:"description"`
	LeaderID       uint            `gorm:"not null;index" json:"leaderId"`
	Leader         *User           `gorm:"foreignKey:LeaderID" json:"leader,omitempty"`
	EventID        uint            `gorm:"not null;index" json:"eventId"`
	Event          *Event          `gorm:"foreignKey:EventID" json:"event,omitempty"`
	TeamSize       TeamSize        `gorm:"embedded;embeddedPrefix:team_size_" json:"teamSize"`
	Status         TeamStatus      `gorm:"type:varchar(15);not null;default:'forming';index" json:"status"`
	Visibility     Visibility      `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	Tags           []string        `gorm:"type:text;serializer:json" json:"tags"`
	Views          int64           `gorm:"not null;default:0" json:"views"`
	RequiredSkills []RequiredSkill `gorm:"-" json:"requiredSkills"`
	Members        []Member        `gorm:"-" json:"members"`
	// AvailableSpots and CompletionPercentage are computed on read.
	AvailableSpots       int64     `gorm:"-" json:"availableSpots"`
	CompletionPercentage int64     `gorm:"-" json:"completionPercentage"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Roster summarizes the team for the membership workflow.
func (t *Team) Roster() RosterInfo {
	return RosterInfo{Kind: KindTeam, ID: t.ID, ManagerID: t.LeaderID, Status: string(t.Status), Size: t.TeamSize}
}

// CompletionPercentage is round(current/required*100).
func CompletionPercentage(current, required int64) int64 {
	if required <= 0 {
		return 0
	}
	return int64(math.Round(float64(current) / float64(required) * 100))
}

// Derive fills the read-time fields.
func (t *Team) Derive() {
	t.AvailableSpots = AvailableSpots(t.TeamSize.Required, t.TeamSize.Current)
	t.CompletionPercentage = CompletionPercentage(t.TeamSize.Current, t.TeamSize.Required)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.RequiredSkills == nil {
		t.RequiredSkills = []RequiredSkill{}
	}
	if t.Members == nil {
		t.Members = []Member{}
	}
}
