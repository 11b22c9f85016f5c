package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotifyPostComment            NotificationType = "post_comment"
	NotifyPostUpvote             NotificationType = "post_upvote"
	NotifyPostMention            NotificationType = "post_mention"
	NotifyProjectJoinRequest     NotificationType = "project_join_request"
	NotifyProjectRequestAccepted NotificationType = "project_request_accepted"
	NotifyProjectRequestRejected NotificationType = "project_request_rejected"
	NotifyEventReminder          NotificationType = "event_reminder"
	NotifyEventRegistration      NotificationType = "event_registration"
	NotifyTeamInvitation         NotificationType = "team_invitation"
	NotifyTeamJoinRequest        NotificationType = "team_join_request"
	NotifyBadgeEarned            NotificationType = "badge_earned"
	NotifyAchievementUnlocked    NotificationType = "achievement_unlocked"
	NotifySystemAnnouncement     NotificationType = "system_announcement"
	NotifyProfileView            NotificationType = "profile_view"
	NotifyConnectionRequest      NotificationType = "connection_request"
	NotifyMessageReceived        NotificationType = "message_received"
	NotifyProjectUpdate          NotificationType = "project_update"
	NotifyEventUpdate            NotificationType = "event_update"
	NotifyModerationAction       NotificationType = "moderation_action"
	NotifyVerificationStatus     NotificationType = "verification_status"
)

var notificationTypes = map[NotificationType]struct{}{
	NotifyPostComment: {}, NotifyPostUpvote: {}, NotifyPostMention: {}, NotifyProjectJoinRequest: {},
	NotifyProjectRequestAccepted: {}, NotifyProjectRequestRejected: {}, NotifyEventReminder: {},
	NotifyEventRegistration: {}, NotifyTeamInvitation: {}, NotifyTeamJoinRequest: {}, NotifyBadgeEarned: {},
	NotifyAchievementUnlocked: {}, NotifySystemAnnouncement: {}, NotifyProfileView: {},
	NotifyConnectionRequest: {}, NotifyMessageReceived: {}, NotifyProjectUpdate: {}, NotifyEventUpdate: {},
	NotifyModerationAction: {}, NotifyVerificationStatus: {},
}

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// NotificationStatus is the read state of a notification.
type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationRead     NotificationStatus = "read"
	NotificationArchived NotificationStatus = "archived"
)

// NotificationPriority orders notifications in clients.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationTTL is how long a notification lives when no expiry is set.
const NotificationTTL = 30 * 24 * time.Hour

// RelatedKind tags the RelatedEntity union.
type RelatedKind string

const (
	RelatedNone    RelatedKind = ""
	RelatedPost    RelatedKind = "post"
	RelatedComment RelatedKind = "comment"
	RelatedProject RelatedKind = "project"
	RelatedEvent   RelatedKind = "event"
	RelatedUser    RelatedKind = "user"
	RelatedTeam    RelatedKind = "team"
	RelatedBadge   RelatedKind = "badge"
	RelatedSystem  RelatedKind = "system"
)

// RelatedEntity points a notification at the thing it is about. Build it with
// one of the constructors; System carries no id and every other kind needs one.
type RelatedEntity struct {
	Kind RelatedKind `gorm:"column:related_kind;type:varchar(10)" json:"type,omitempty"`
	ID   *uint       `gorm:"column:related_id" json:"id,omitempty"`
}

func related(kind RelatedKind, id uint) RelatedEntity {
	return RelatedEntity{Kind: kind, ID: &id}
}

func RelatedToPost(id uint) RelatedEntity    { return related(RelatedPost, id) }
func RelatedToComment(id uint) RelatedEntity { return related(RelatedComment, id) }
func RelatedToProject(id uint) RelatedEntity { return related(RelatedProject, id) }
func RelatedToEvent(id uint) RelatedEntity   { return related(RelatedEvent, id) }
func RelatedToUser(id uint) RelatedEntity    { return related(RelatedUser, id) }
func RelatedToTeam(id uint) RelatedEntity    { return related(RelatedTeam, id) }
func RelatedToBadge(id uint) RelatedEntity   { return related(RelatedBadge, id) }
func RelatedToSystem() RelatedEntity         { return RelatedEntity{Kind: RelatedSystem} }

// RelatedToKind maps an entity kind onto its related-entity variant.
func RelatedToKind(kind EntityKind, id uint) RelatedEntity {
	if kind == KindProject {
		return RelatedToProject(id)
	}
	return RelatedToTeam(id)
}

// Validate checks the union is well formed.
func (r RelatedEntity) Validate() error {
	switch r.Kind {
	case RelatedNone:
		if r.ID != nil {
			return errors.New("related entity id given without a type")
		}
		return nil
	case RelatedSystem:
		if r.ID != nil {
			return errors.New("system related entity carries no id")
		}
		return nil
	case RelatedPost, RelatedComment, RelatedProject, RelatedEvent, RelatedUser, RelatedTeam, RelatedBadge:
		if r.ID == nil || *r.ID == 0 {
			return errors.New("related entity id is required")
		}
		return nil
	default:
		return errors.New("unknown related entity type")
	}
}

// Notification is a persisted message to one recipient.
type Notification struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	RecipientID   uint                 `gorm:"not null;index:idx_notifications_recipient_status" json:"recipientId"`
	SenderID      *uint                `json:"senderId,omitempty"`
	Sender        *User                `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type          NotificationType     `gorm:"type:varchar(30);not null" json:"type"`
	Title         string               `gorm:"size:200;not null" json:"title"`
	Message       string               `gorm:"size:500;not null" json:"message"`
	RelatedEntity RelatedEntity        `gorm:"embedded" json:"relatedEntity"`
	Status        NotificationStatus   `gorm:"type:varchar(10);not null;default:'unread';index:idx_notifications_recipient_status" json:"status"`
	Priority      NotificationPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	ReadAt        *time.Time           `json:"readAt,omitempty"`
	ExpiresAt     time.Time            `gorm:"not null;index" json:"expiresAt"`
	CreatedAt     time.Time            `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// BeforeCreate applies defaults that depend on the clock.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = time.Now().UTC().Add(NotificationTTL)
	}
	if n.Status == "" {
		n.Status = NotificationUnread
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	return nil
}
