// Package models contains data structures for the application's domain models.
package models

import (
	"math"
	"time"
)

// PostCategory is the closed set of forum categories.
type PostCategory string

const (
	CategoryTech          PostCategory = "tech"
	CategoryDesign        PostCategory = "design"
	CategoryBusiness      PostCategory = "business"
	CategoryPlacementPrep PostCategory = "placement-prep"
	CategoryHackathons    PostCategory = "hackathons"
	CategoryProjects      PostCategory = "projects"
	CategoryGeneral       PostCategory = "general"
	CategoryAnnouncements PostCategory = "announcements"
	CategoryQuestions     PostCategory = "questions"
	CategoryResources     PostCategory = "resources"
)

// PostCategories lists every accepted category.
var PostCategories = []PostCategory{
	CategoryTech, CategoryDesign, CategoryBusiness, CategoryPlacementPrep, CategoryHackathons,
	CategoryProjects, CategoryGeneral, CategoryAnnouncements, CategoryQuestions, CategoryResources,
}

// PostStatus is the publication state. Deleted posts stay in the table.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
	PostStatusDeleted   PostStatus = "deleted"
)

// Post is a forum discussion thread.
type Post struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Title            string       `gorm:"size:200;not null" json:"title"`
	Content          string       `gorm:"type:text;not null" json:"content"`
	AuthorID         uint         `gorm:"not null;index" json:"authorId"`
	Author           *User        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category         PostCategory `gorm:"type:varchar(30);not null;index" json:"category"`
	Tags             []PostTag    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	TagNames         []string     `gorm:"-" json:"tags"`
	Status           PostStatus   `gorm:"type:varchar(20);not null;default:'published';index" json:"status"`
	Visibility       Visibility   `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	IsPinned         bool         `gorm:"default:false" json:"isPinned"`
	IsQuestion       bool         `gorm:"default:false" json:"isQuestion"`
	AcceptedAnswerID *uint        `json:"acceptedAnswerId,omitempty"`
	Views            int64        `gorm:"not null;default:0" json:"views"`
	// CommentsCount is persisted and recomputed inside every comment transaction.
	CommentsCount int64 `gorm:"not null;default:0" json:"commentsCount"`
	// Upvotes and Downvotes are selected from post_votes at query time.
	Upvotes   int64 `gorm:"->;-:migration" json:"upvotes"`
	Downvotes int64 `gorm:"->;-:migration" json:"downvotes"`
	// MyVote is the requesting user's vote, if any.
	MyVote          VoteDirection `gorm:"->;-:migration" json:"myVote,omitempty"`
	VoteCount       int64         `gorm:"-" json:"voteCount"`
	PopularityScore float64       `gorm:"-" json:"popularityScore"`
	CreatedAt       time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// PostTag is one lowercase tag on a post.
type PostTag struct {
	ID     uint   `gorm:"primaryKey" json:"-"`
	PostID uint   `gorm:"not null;uniqueIndex:idx_post_tags_post_tag" json:"-"`
	Tag    string `gorm:"size:50;not null;uniqueIndex:idx_post_tags_post_tag;index" json:"tag"`
}

// Popularity computes the trending score of a post at instant now:
// voteCount + 2*comments + 0.1*views + max(0, 7 - ageDays).
func Popularity(upvotes, downvotes, comments, views int64, createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / 24
	recency := math.Max(0, 7-ageDays)
	return float64(upvotes-downvotes) + float64(comments)*2 + float64(views)*0.1 + recency
}

// Derive fills the read-time fields.
func (p *Post) Derive(now time.Time) {
	p.VoteCount = p.Upvotes - p.Downvotes
	p.PopularityScore = Popularity(p.Upvotes, p.Downvotes, p.CommentsCount, p.Views, p.CreatedAt, now)
	if len(p.Tags) > 0 {
		p.TagNames = make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			p.TagNames = append(p.TagNames, t.Tag)
		}
	}
	if p.TagNames == nil {
		p.TagNames = []string{}
	}
}
