package repository

import (
	"context"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository stores per-recipient notifications. Expired rows are
// never returned or counted.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// List returns the recipient's notifications newest first. An empty status
	// means unread; StatusAll disables the filter.
	List(ctx context.Context, recipientID uint, status string, p Paging, now time.Time) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uint, now time.Time) (int64, error)
	// MarkRead marks the given ids read, or every unread notification when ids is empty.
	MarkRead(ctx context.Context, recipientID uint, ids []uint, now time.Time) (int64, error)
	Archive(ctx context.Context, recipientID, id uint, now time.Time) error
}

type notificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, log: observability.NewRepoLogger("notifications")}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	return nil
}

func liveFor(recipientID uint, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("recipient_id = ? AND expires_at > ?", recipientID, now)
	}
}

func (r *notificationRepository) List(ctx context.Context, recipientID uint, status string, p Paging, now time.Time) ([]models.Notification, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = liveFor(recipientID, now)(db)
		switch status {
		case StatusAll:
			return db
		case "":
			return db.Where("status = ?", models.NotificationUnread)
		default:
			return db.Where("status = ?", status)
		}
	}
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Notification{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var items []models.Notification
	err := db.Scopes(scope).
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Scopes(p.apply).
		Find(&items).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Scopes(liveFor(recipientID, now)).
		Where("status = ?", models.NotificationUnread).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID uint, ids []uint, now time.Time) (int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Notification{}).
		Scopes(liveFor(recipientID, now)).
		Where("status = ?", models.NotificationUnread)
	if len(ids) > 0 {
		db = db.Where("id IN ?", ids)
	}
	res := db.Updates(map[string]interface{}{"status": models.NotificationRead, "read_at": now, "updated_at": now})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) Archive(ctx context.Context, recipientID, id uint, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Updates(map[string]interface{}{"status": models.NotificationArchived, "updated_at": now})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}
