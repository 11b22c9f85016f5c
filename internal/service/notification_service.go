package service

import (
	"context"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/validation"
)

type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisherOrNop(publisher)}
}

// Notify validates and stores n, then pushes it to the recipient's sockets.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	var errs validation.Errors
	errs.Require(n.RecipientID != 0, "recipient", "Recipient is required")
	errs.Require(n.Type.Valid(), "type", "Invalid notification type")
	errs.Length("title", n.Title, 1, 200, "Title is required and cannot exceed 200 characters")
	errs.Length("message", n.Message, 1, 500, "Message is required and cannot exceed 500 characters")
	if err := n.RelatedEntity.Validate(); err != nil {
		errs.Add("relatedEntity", err.Error())
	}
	if n.Priority != "" {
		validation.OneOf(&errs, "priority", n.Priority,
			[]models.NotificationPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent},
			false, "Invalid priority")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	observability.RecordNotification(string(n.Type))
	s.publisher.PublishUser(ctx, n.RecipientID, EventNotification, n)
	return nil
}

// notifyQuietly is Notify for post-commit side effects.
func (s *NotificationService) notifyQuietly(ctx context.Context, n *models.Notification) {
	if s == nil {
		return
	}
	logSideEffect(ctx, "notify "+string(n.Type), s.Notify(ctx, n))
}

// List returns the recipient's live notifications. status is empty for
// unread, one of the notification states, or "all".
func (s *NotificationService) List(ctx context.Context, recipientID uint, status string, p repository.Paging) (models.Page[models.Notification], error) {
	var errs validation.Errors
	validation.OneOf(&errs, "status", status,
		[]string{string(models.NotificationUnread), string(models.NotificationRead), string(models.NotificationArchived), repository.StatusAll},
		true, "Invalid status filter")
	if err := errs.Err(); err != nil {
		return models.Page[models.Notification]{}, err
	}
	items, total, err := s.repo.List(ctx, recipientID, status, p, utcNow())
	if err != nil {
		return models.Page[models.Notification]{}, err
	}
	return repository.NewPage(items, total, p), nil
}

func (s *NotificationService) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID, utcNow())
}

// MarkRead marks the given notifications read, or every unread one when ids is empty.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID uint, ids []uint) (int64, error) {
	return s.repo.MarkRead(ctx, recipientID, ids, utcNow())
}

func (s *NotificationService) Archive(ctx context.Context, recipientID, id uint) error {
	return s.repo.Archive(ctx, recipientID, id, utcNow())
}
