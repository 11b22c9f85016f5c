package models

import "time"

// EntityKind names the aggregate a roster row belongs to. Teams and projects
// share one membership protocol keyed by kind.
type EntityKind string

const (
	KindTeam    EntityKind = "team"
	KindProject EntityKind = "project"
)

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	return k == KindTeam || k == KindProject
}

// Label is the human name used in messages.
func (k EntityKind) Label() string {
	if k == KindProject {
		return "Project"
	}
	return "Team"
}

// MemberStatus is the roster state of a member row.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
	MemberLeft     MemberStatus = "left"
)

// Default roster roles.
const (
	RoleLeader = "Leader"
	RoleOwner  = "Owner"
	RoleMember = "Member"
)

// JoinRequestStatus is pending until answered; accepted and rejected are terminal.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// SkillLevel grades a required skill.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// Member is one user on a team or project roster.
type Member struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	EntityKind EntityKind   `gorm:"type:varchar(10);not null;uniqueIndex:idx_members_entity_user" json:"-"`
	EntityID   uint         `gorm:"not null;uniqueIndex:idx_members_entity_user" json:"-"`
	UserID     uint         `gorm:"not null;uniqueIndex:idx_members_entity_user;index" json:"userId"`
	User       *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role       string       `gorm:"size:50;not null;default:'Member'" json:"role"`
	Skills     []string     `gorm:"type:text;serializer:json" json:"skills"`
	Status     MemberStatus `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	JoinedAt   time.Time    `gorm:"not null" json:"joinedAt"`
}

// JoinRequest asks the leader or owner to admit a user.
type JoinRequest struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	EntityKind      EntityKind        `gorm:"type:varchar(10);not null;index:idx_join_requests_entity" json:"-"`
	EntityID        uint              `gorm:"not null;index:idx_join_requests_entity" json:"-"`
	UserID          uint              `gorm:"not null;index" json:"userId"`
	User            *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Message         string            `gorm:"size:500" json:"message"`
	Skills          []string          `gorm:"type:text;serializer:json" json:"skills"`
	Experience      string            `gorm:"size:500" json:"experience,omitempty"`
	Status          JoinRequestStatus `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	RequestedAt     time.Time         `gorm:"not null" json:"requestedAt"`
	RespondedAt     *time.Time        `json:"respondedAt,omitempty"`
	ResponseMessage string            `gorm:"size:500" json:"responseMessage,omitempty"`
}

// RequiredSkill is a skill a team or project is looking for.
type RequiredSkill struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	EntityKind EntityKind `gorm:"type:varchar(10);not null;index:idx_required_skills_entity" json:"-"`
	EntityID   uint       `gorm:"not null;index:idx_required_skills_entity" json:"-"`
	Skill      string     `gorm:"size:50;not null;index" json:"skill"`
	Level      SkillLevel `gorm:"type:varchar(15);not null;default:'intermediate'" json:"level"`
	IsRequired bool       `gorm:"not null" json:"isRequired"`
}

// TeamSize tracks roster capacity. Current always equals the number of
// active members and is written only by the roster sync step.
type TeamSize struct {
	Current  int64 `gorm:"not null;default:1" json:"current"`
	Required int64 `gorm:"not null" json:"required"`
	Max      int64 `gorm:"not null;default:0" json:"max,omitempty"`
}

// AvailableSpots is max(0, required - active).
func AvailableSpots(required, active int64) int64 {
	if required-active < 0 {
		return 0
	}
	return required - active
}

// RosterInfo is what the membership workflow needs to know about a team or project.
type RosterInfo struct {
	Kind      EntityKind
	ID        uint
	ManagerID uint
	Status    string
	Size      TeamSize
}

// AcceptingMembers reports whether the roster can still grow.
func (r RosterInfo) AcceptingMembers() bool {
	switch r.Kind {
	case KindTeam:
		return r.Status == string(TeamStatusForming) || r.Status == string(TeamStatusActive)
	case KindProject:
		return r.Status == string(ProjectStatusPlanning) || r.Status == string(ProjectStatusActive)
	}
	return false
}

// Full reports whether a capacity cap is reached for the given active count.
func (r RosterInfo) Full(active int64) bool {
	return r.Size.Max > 0 && active >= r.Size.Max
}
