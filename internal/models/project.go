package models

import (
	"math"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// ProjectTypes lists the accepted project types.
var ProjectTypes = []string{
	"web-development", "mobile-app", "ai-ml", "data-science", "iot", "blockchain",
	"game-development", "design", "research", "startup", "open-source", "other",
}

// ProjectDomains lists the accepted application domains.
var ProjectDomains = []string{
	"education", "healthcare", "finance", "e-commerce", "social-media", "productivity",
	"entertainment", "gaming", "sustainability", "agriculture", "transportation", "other",
}

// ProjectLinks are external resources for a project.
type ProjectLinks struct {
	Repository    string `gorm:"size:500" json:"repository,omitempty"`
	Website       string `gorm:"size:500" json:"website,omitempty"`
	Demo          string `gorm:"size:500" json:"demo,omitempty"`
	Documentation string `gorm:"size:500" json:"documentation,omitempty"`
	Design        string `gorm:"size:500" json:"design,omitempty"`
}

// Project is a student project looking for collaborators.
type Project struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	Title          string             `gorm:"size:200;not null" json:"title"`
	Description    string             `gorm:"size:2000;not null" json:"description"`
	OwnerID        uint               `gorm:"not null;index" json:"ownerId"`
	Owner          *User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Type           string             `gorm:"type:varchar(20);not null;index" json:"type"`
	Domain         string             `gorm:"type:varchar(20);index" json:"domain,omitempty"`
	Status         ProjectStatus      `gorm:"type:varchar(15);not null;default:'planning';index" json:"status"`
	Visibility     Visibility         `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	TeamSize       TeamSize           `gorm:"embedded;embeddedPrefix:team_size_" json:"teamSize"`
	Links          ProjectLinks       `gorm:"embedded;embeddedPrefix:link_" json:"links"`
	Tags           []string           `gorm:"type:text;serializer:json" json:"tags"`
	Views          int64              `gorm:"not null;default:0" json:"views"`
	StartDate      *time.Time         `json:"startDate,omitempty"`
	EndDate        *time.Time         `json:"endDate,omitempty"`
	Milestones     []ProjectMilestone `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"milestones"`
	RequiredSkills []RequiredSkill    `gorm:"-" json:"requiredSkills"`
	Members        []Member           `gorm:"-" json:"members"`
	AvailableSpots int64              `gorm:"-" json:"availableSpots"`
	Progress       int64              `gorm:"-" json:"progress"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// ProjectMilestone is a dated checkpoint on a project timeline.
type ProjectMilestone struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProjectID   uint       `gorm:"not null;index" json:"projectId"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Roster summarizes the project for the membership workflow.
func (p *Project) Roster() RosterInfo {
	return RosterInfo{Kind: KindProject, ID: p.ID, ManagerID: p.OwnerID, Status: string(p.Status), Size: p.TeamSize}
}

// MilestoneProgress is round(completed/total*100), or 0 with no milestones.
func MilestoneProgress(milestones []ProjectMilestone) int64 {
	if len(milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return int64(math.Round(float64(done) / float64(len(milestones)) * 100))
}

// Derive fills the read-time fields.
func (p *Project) Derive() {
	p.AvailableSpots = AvailableSpots(p.TeamSize.Required, p.TeamSize.Current)
	p.Progress = MilestoneProgress(p.Milestones)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Milestones == nil {
		p.Milestones = []ProjectMilestone{}
	}
	if p.RequiredSkills == nil {
		p.RequiredSkills = []RequiredSkill{}
	}
	if p.Members == nil {
		p.Members = []Member{}
	}
}
