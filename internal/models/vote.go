package models

import "time"

// VoteDirection is the stored side of a vote row.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is one of the two directions.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// PostVote records one user's vote on a post. The (post_id, user_id) unique
// index keeps a user in at most one of the upvote and downvote sets.
type PostVote struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	PostID    uint          `gorm:"not null;uniqueIndex:idx_post_votes_post_user" json:"postId"`
	UserID    uint          `gorm:"not null;uniqueIndex:idx_post_votes_post_user;index" json:"userId"`
	Direction VoteDirection `gorm:"type:varchar(4);not null" json:"direction"`
	CreatedAt time.Time     `json:"createdAt"`
}

// CommentVote records one user's vote on a comment.
type CommentVote struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	CommentID uint          `gorm:"not null;uniqueIndex:idx_comment_votes_comment_user" json:"commentId"`
	UserID    uint          `gorm:"not null;uniqueIndex:idx_comment_votes_comment_user;index" json:"userId"`
	Direction VoteDirection `gorm:"type:varchar(4);not null" json:"direction"`
	CreatedAt time.Time     `json:"createdAt"`
}
