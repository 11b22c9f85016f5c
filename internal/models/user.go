package models

import (
	"time"
)

// UserRole is the account role.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

// Visibility controls who can see a profile, post or project.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityCollegeOnly Visibility = "college-only"
	VisibilityPrivate     Visibility = "private"
)

// SocialLinks are optional profile URLs.
type SocialLinks struct {
	LinkedIn  string `gorm:"column:linkedin;size:255" json:"linkedin,omitempty"`
	GitHub    string `gorm:"column:github;size:255" json:"github,omitempty"`
	Portfolio string `gorm:"size:255" json:"portfolio,omitempty"`
	Twitter   string `gorm:"size:255" json:"twitter,omitempty"`
}

// UserPreferences holds notification and privacy settings.
type UserPreferences struct {
	EmailNotifications bool       `gorm:"not null" json:"emailNotifications"`
	PushNotifications  bool       `gorm:"not null" json:"pushNotifications"`
	ProfileVisibility  Visibility `gorm:"type:varchar(20);default:'public'" json:"profileVisibility"`
}

// User is a CollegeConnect account.
type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:50;not null" json:"name"`
	Email        string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"column:password_hash;not null" json:"-"`
	Role         UserRole        `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	College      string          `gorm:"size:100;not null;index" json:"college"`
	Course       string          `gorm:"size:100" json:"course,omitempty"`
	Year         string          `gorm:"size:20" json:"year,omitempty"`
	Semester     int             `json:"semester,omitempty"`
	Bio          string          `gorm:"size:500" json:"bio,omitempty"`
	Skills       []string        `gorm:"type:text;serializer:json" json:"skills"`
	Interests    []string        `gorm:"type:text;serializer:json" json:"interests"`
	SocialLinks  SocialLinks     `gorm:"embedded;embeddedPrefix:social_" json:"socialLinks"`
	ProfileImage string          `gorm:"size:500" json:"profileImage,omitempty"`
	IsVerified   bool            `gorm:"default:false" json:"isVerified"`
	IsActive     bool            `gorm:"not null;index" json:"isActive"`
	LastLogin    *time.Time      `json:"lastLogin,omitempty"`
	Preferences  UserPreferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats are derived from the other collections at read time.
type UserStats struct {
	PostsCount     int64 `json:"postsCount"`
	CommentsCount  int64 `json:"commentsCount"`
	ProjectsCount  int64 `json:"projectsCount"`
	EventsAttended int64 `json:"eventsAttended"`
	Reputation     int64 `json:"reputation"`
}

// Badge is an achievement computed from UserStats.
type Badge struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BadgesFor derives the badges a user has earned.
func BadgesFor(stats UserStats) []Badge {
	badges := []Badge{}
	if stats.PostsCount >= 1 {
		badges = append(badges, Badge{Name: "First Post", Description: "Published a first post"})
	}
	if stats.PostsCount >= 25 {
		badges = append(badges, Badge{Name: "Prolific Writer", Description: "Published 25 posts"})
	}
	if stats.CommentsCount >= 50 {
		badges = append(badges, Badge{Name: "Conversationalist", Description: "Wrote 50 comments"})
	}
	if stats.ProjectsCount >= 1 {
		badges = append(badges, Badge{Name: "Builder", Description: "Joined or owns a project"})
	}
	if stats.EventsAttended >= 5 {
		badges = append(badges, Badge{Name: "Event Regular", Description: "Attended 5 events"})
	}
	if stats.Reputation >= 100 {
		badges = append(badges, Badge{Name: "Trusted Voice", Description: "Earned 100 reputation"})
	}
	return badges
}
