package service

import (
	"context"
	"strings"

	"collegeconnect/internal/cache"
	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

type CommentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	notifications *NotificationService
	publisher     Publisher
	isAdmin       AdminCheck
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifications *NotificationService,
	publisher Publisher,
	isAdmin AdminCheck,
) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		notifications: notifications,
		publisher:     publisherOrNop(publisher),
		isAdmin:       isAdmin,
	}
}

func validateCommentContent(content string) error {
	var errs validation.Errors
	errs.Length("content", content, 1, 1000, "Comment must be between 1 and 1000 characters")
	return errs.Err()
}

// CreateComment adds a top-level comment, or a reply when ParentID is set.
// Replies nest one level only.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	post, err := s.livePost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.liveComment(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
		if parent.IsReply() {
			return nil, models.NewValidationError("Cannot reply to a reply")
		}
	}

	comment := &models.Comment{
		Content:         strings.TrimSpace(in.Content),
		AuthorID:        in.UserID,
		PostID:          post.ID,
		ParentCommentID: in.ParentID,
		Status:          models.CommentStatusActive,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidateUserStats(ctx, in.UserID)

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	created.Derive()

	s.publisher.PublishBroadcast(ctx, EventCommentCreated, map[string]interface{}{
		"id":              created.ID,
		"postId":          created.PostID,
		"parentCommentId": created.ParentCommentID,
	})
	recipient := post.AuthorID
	if parent != nil {
		recipient = parent.AuthorID
	}
	if recipient != in.UserID {
		sender := in.UserID
		s.notifications.notifyQuietly(ctx, &models.Notification{
			RecipientID:   recipient,
			SenderID:      &sender,
			Type:          models.NotifyPostComment,
			Title:         "New comment",
			Message:       "Someone commented on " + truncate(post.Title, 400),
			RelatedEntity: models.RelatedToComment(created.ID),
		})
	}
	return created, nil
}

// ListComments returns the active top-level comments of a post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, p repository.Paging) (models.Page[models.Comment], error) {
	if _, err := s.livePost(ctx, postID); err != nil {
		return models.Page[models.Comment]{}, err
	}
	items, total, err := s.commentRepo.ListTopLevel(ctx, postID, p)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	for i := range items {
		items[i].Derive()
	}
	return repository.NewPage(items, total, p), nil
}

func (s *CommentService) ListReplies(ctx context.Context, commentID uint, p repository.Paging) (models.Page[models.Comment], error) {
	if _, err := s.liveComment(ctx, commentID); err != nil {
		return models.Page[models.Comment]{}, err
	}
	items, total, err := s.commentRepo.ListReplies(ctx, commentID, p)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	for i := range items {
		items[i].Derive()
	}
	return repository.NewPage(items, total, p), nil
}

// UpdateComment replaces the content. The previous text goes to the edit history.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	comment, err := s.liveComment(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, comment.AuthorID, in.UserID, "You can only update your own comments"); err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, comment, strings.TrimSpace(in.Content), utcNow()); err != nil {
		return nil, err
	}
	updated, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	updated.Derive()
	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.liveComment(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, comment.AuthorID, in.UserID, "You can only delete your own comments"); err != nil {
		return err
	}
	if err := s.commentRepo.SoftDelete(ctx, comment); err != nil {
		return err
	}
	cache.InvalidateUserStats(ctx, comment.AuthorID)
	return nil
}

func (s *CommentService) livePost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusDeleted {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *CommentService) liveComment(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Status == models.CommentStatusDeleted {
		return nil, models.NewNotFoundError("Comment", id)
	}
	return comment, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
