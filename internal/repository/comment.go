package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	// Create inserts the comment and recounts the post and parent counters.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// UpdateContent appends the old content to the edit history when it changes.
	UpdateContent(ctx context.Context, comment *models.Comment, content string, now time.Time) error
	SoftDelete(ctx context.Context, comment *models.Comment) error
	ListTopLevel(ctx context.Context, postID uint, p Paging) ([]models.Comment, int64, error)
	ListReplies(ctx context.Context, parentID uint, p Paging) ([]models.Comment, int64, error)
}

type commentRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{
		db:      db,
		log:     observability.NewRepoLogger("comments"),
		metrics: observability.NewDatabaseMetrics("comments"),
	}
}

func syncCommentsCount(tx *gorm.DB, postID uint) error {
	return tx.Exec(`UPDATE posts SET comments_count = (
		SELECT COUNT(*) FROM comments WHERE post_id = ? AND status <> ?
	) WHERE id = ?`, postID, models.CommentStatusDeleted, postID).Error
}

func syncRepliesCount(tx *gorm.DB, commentID uint) error {
	return tx.Exec(`UPDATE comments SET replies_count = (
		SELECT COUNT(*) FROM comments r WHERE r.parent_comment_id = ? AND r.status <> ?
	) WHERE id = ?`, commentID, models.CommentStatusDeleted, commentID).Error
}

func syncCommentCounters(tx *gorm.DB, c *models.Comment) error {
	if err := syncCommentsCount(tx, c.PostID); err != nil {
		return err
	}
	if c.ParentCommentID != nil {
		return syncRepliesCount(tx, *c.ParentCommentID)
	}
	return nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer r.metrics.TrackQuery("create")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return syncCommentCounters(tx, comment)
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return internal(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"comment_id": comment.ID, "post_id": comment.PostID})
	return nil
}

func commentVotes(db *gorm.DB) *gorm.DB {
	return withVotes("comments", "comment_votes", "comment_id", 0)(db)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := readDB(r.db).WithContext(ctx).
		Scopes(commentVotes).
		Preload("Author").
		Preload("EditHistory", func(db *gorm.DB) *gorm.DB { return db.Order("edited_at ASC, id ASC") }).
		Where("comments.id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, comment *models.Comment, content string, now time.Time) error {
	if content == comment.Content {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edit := models.CommentEdit{CommentID: comment.ID, Content: comment.Content, EditedAt: now}
		if err := tx.Create(&edit).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).Updates(map[string]interface{}{
			"content":        content,
			"is_edited":      true,
			"last_edited_at": now,
			"updated_at":     now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", comment.ID)
		}
		comment.EditHistory = append(comment.EditHistory, edit)
		return nil
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return internal(err)
	}
	comment.Content = content
	comment.IsEdited = true
	comment.LastEditedAt = &now
	comment.UpdatedAt = now
	r.log.LogUpdate(ctx, map[string]interface{}{"comment_id": comment.ID})
	return nil
}

func (r *commentRepository) SoftDelete(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
			Updates(map[string]interface{}{"status": models.CommentStatusDeleted, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Comment", comment.ID)
		}
		return syncCommentCounters(tx, comment)
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return internal(err)
	}
	comment.Status = models.CommentStatusDeleted
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": comment.ID})
	return nil
}

func (r *commentRepository) list(ctx context.Context, where func(*gorm.DB) *gorm.DB, p Paging) ([]models.Comment, int64, error) {
	defer r.metrics.TrackQuery("list")()
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Comment{}).Scopes(where).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []models.Comment
	err := db.Scopes(where, commentVotes).
		Preload("Author").
		Order("comments.created_at ASC, comments.id ASC").
		Scopes(p.apply).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, p Paging) ([]models.Comment, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("comments.post_id = ? AND comments.parent_comment_id IS NULL AND comments.status = ?",
			postID, models.CommentStatusActive)
	}, p)
}

func (r *commentRepository) ListReplies(ctx context.Context, parentID uint, p Paging) ([]models.Comment, int64, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("comments.parent_comment_id = ? AND comments.status = ?", parentID, models.CommentStatusActive)
	}, p)
}
