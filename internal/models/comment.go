package models

import "time"

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusActive  CommentStatus = "active"
	CommentStatusDeleted CommentStatus = "deleted"
	CommentStatusHidden  CommentStatus = "hidden"
)

// Comment belongs to a post and may reply to one top-level comment.
type Comment struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Content         string        `gorm:"size:1000;not null" json:"content"`
	AuthorID        uint          `gorm:"not null;index" json:"authorId"`
	Author          *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostID          uint          `gorm:"not null;index:idx_comments_post_parent" json:"postId"`
	ParentCommentID *uint         `gorm:"index:idx_comments_post_parent" json:"parentCommentId,omitempty"`
	Status          CommentStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsEdited        bool          `gorm:"default:false" json:"isEdited"`
	LastEditedAt    *time.Time    `json:"lastEditedAt,omitempty"`
	// RepliesCount is persisted and recomputed inside every reply transaction.
	RepliesCount int64         `gorm:"not null;default:0" json:"repliesCount"`
	Upvotes      int64         `gorm:"->;-:migration" json:"upvotes"`
	Downvotes    int64         `gorm:"->;-:migration" json:"downvotes"`
	VoteCount    int64         `gorm:"-" json:"voteCount"`
	EditHistory  []CommentEdit `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"editHistory,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CommentEdit is an append-only record of a comment's previous content.
type CommentEdit struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CommentID uint      `gorm:"not null;index" json:"-"`
	Content   string    `gorm:"size:1000;not null" json:"content"`
	EditedAt  time.Time `gorm:"not null" json:"editedAt"`
}

// IsReply reports whether the comment is nested under another.
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil
}

// Derive fills the read-time fields.
func (c *Comment) Derive() {
	c.VoteCount = c.Upvotes - c.Downvotes
}
