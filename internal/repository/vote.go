package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
)

// VoteTarget describes a votable table and the vote table keyed on it.
type VoteTarget struct {
	Entity     string
	Table      string
	VoteTable  string
	ForeignKey string
	// DeletedStatus marks rows that can no longer be voted on.
	DeletedStatus string
}

var (
	PostVotes = VoteTarget{
		Entity:        "post",
		Table:         "posts",
		VoteTable:     "post_votes",
		ForeignKey:    "post_id",
		DeletedStatus: string(models.PostStatusDeleted),
	}
	CommentVotes = VoteTarget{
		Entity:        "comment",
		Table:         "comments",
		VoteTable:     "comment_votes",
		ForeignKey:    "comment_id",
		DeletedStatus: string(models.CommentStatusDeleted),
	}
)

// Label is the capitalized entity name used in NotFound messages.
func (t VoteTarget) Label() string {
	if t.Entity == "comment" {
		return "Comment"
	}
	return "Post"
}

// VoteRepository stores one vote row per (entity, user).
type VoteRepository interface {
	// TargetAuthor returns the author of a live entity, or NotFound.
	TargetAuthor(ctx context.Context, t VoteTarget, id uint) (uint, error)
	// Vote sets the user's vote to dir. It reports false when the user
	// already held that exact vote, in which case nothing changed.
	Vote(ctx context.Context, t VoteTarget, id, userID uint, dir models.VoteDirection, now time.Time) (bool, error)
	RemoveVote(ctx context.Context, t VoteTarget, id, userID uint) error
	Counts(ctx context.Context, t VoteTarget, id uint) (models.VoteCounts, error)
}

type voteRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db, metrics: observability.NewDatabaseMetrics("votes")}
}

func (r *voteRepository) TargetAuthor(ctx context.Context, t VoteTarget, id uint) (uint, error) {
	var row struct{ AuthorID uint }
	err := r.db.WithContext(ctx).Table(t.Table).
		Select("author_id").
		Where("id = ? AND status <> ?", id, t.DeletedStatus).
		Take(&row).Error
	if err != nil {
		return 0, notFoundOr(err, t.Label(), id)
	}
	return row.AuthorID, nil
}

func upsertVoteSQL(t VoteTarget) string {
	return "INSERT INTO " + t.VoteTable + " (" + t.ForeignKey + ", user_id, direction, created_at) VALUES (?, ?, ?, ?) " +
		"ON CONFLICT (" + t.ForeignKey + ", user_id) DO UPDATE SET direction = excluded.direction, created_at = excluded.created_at " +
		"WHERE " + t.VoteTable + ".direction <> excluded.direction"
}

func (r *voteRepository) Vote(ctx context.Context, t VoteTarget, id, userID uint, dir models.VoteDirection, now time.Time) (bool, error) {
	defer r.metrics.TrackQuery("upsert")()
	res := r.db.WithContext(ctx).Exec(upsertVoteSQL(t), id, userID, dir, now)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *voteRepository) RemoveVote(ctx context.Context, t VoteTarget, id, userID uint) error {
	defer r.metrics.TrackQuery("delete")()
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM "+t.VoteTable+" WHERE "+t.ForeignKey+" = ? AND user_id = ?", id, userID).Error
	return internal(err)
}

func (r *voteRepository) Counts(ctx context.Context, t VoteTarget, id uint) (models.VoteCounts, error) {
	var row struct {
		Upvotes   int64
		Downvotes int64
	}
	q := "SELECT " +
		"(SELECT COUNT(*) FROM " + t.VoteTable + " WHERE " + t.ForeignKey + " = ? AND direction = 'up') AS upvotes, " +
		"(SELECT COUNT(*) FROM " + t.VoteTable + " WHERE " + t.ForeignKey + " = ? AND direction = 'down') AS downvotes"
	if err := r.db.WithContext(ctx).Raw(q, id, id).Scan(&row).Error; err != nil {
		return models.VoteCounts{}, models.NewInternalError(err)
	}
	return models.NewVoteCounts(row.Upvotes, row.Downvotes), nil
}
