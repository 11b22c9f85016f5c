package repository

import (
	"context"
	"errors"
	"time"

	"collegeconnect/internal/cache"
	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows event listings. Upcoming keeps published events that
// have not started yet.
type EventFilter struct {
	Type     models.EventType
	Status   models.EventStatus
	City     string
	Upcoming bool
	Search   string
}

// EventRepository defines persistence operations for events and registrations.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	SetStatus(ctx context.Context, id uint, status models.EventStatus) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, f EventFilter, p Paging, now time.Time) ([]models.Event, int64, error)
	Register(ctx context.Context, eventID, userID uint, teamID *uint, now time.Time) (*models.EventParticipant, error)
	Unregister(ctx context.Context, eventID, userID uint) error
	ListParticipants(ctx context.Context, eventID uint, p Paging) ([]models.EventParticipant, int64, error)
}

type eventRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{
		db:      db,
		log:     observability.NewRepoLogger("events"),
		metrics: observability.NewDatabaseMetrics("events"),
	}
}

// syncParticipantCount recomputes registration_current_participants from the
// registrations that are not cancelled.
func syncParticipantCount(tx *gorm.DB, eventID uint) error {
	return tx.Exec(`UPDATE events SET registration_current_participants = (
		SELECT COUNT(*) FROM event_participants WHERE event_id = ? AND status <> ?
	) WHERE id = ?`, eventID, models.ParticipantCancelled, eventID).Error
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	event.Registration.CurrentParticipants = 0
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"event_id": event.ID, "organizer_id": event.OrganizerID})
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := cache.Aside(ctx, cache.EventKey(id), &event, cache.EventTTL, func() error {
		return notFoundOr(readDB(r.db).WithContext(ctx).First(&event, id).Error, "Event", id)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Update writes the editable fields and recounts participants in the same
// transaction, so a client can never set the current count.
func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(event).
			Select("name", "description", "type", "organizer_type", "start_date", "end_date", "registration_deadline",
				"location_type", "location_venue", "location_city", "location_state", "location_country", "location_online_link",
				"registration_is_required", "registration_is_free", "registration_fee", "registration_max_participants",
				"status", "tags", "updated_at").
			Omit(clause.Associations).
			Updates(event)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Event", event.ID)
		}
		if err := syncParticipantCount(tx, event.ID); err != nil {
			return err
		}
		return tx.Model(&models.Event{}).Select("registration_current_participants").Where("id = ?", event.ID).
			Scan(&event.Registration.CurrentParticipants).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return internal(err)
	}
	cache.InvalidateEvent(ctx, event.ID)
	r.log.LogUpdate(ctx, map[string]interface{}{"event_id": event.ID})
	return nil
}

func (r *eventRepository) SetStatus(ctx context.Context, id uint, status models.EventStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Event", id)
	}
	cache.InvalidateEvent(ctx, id)
	return nil
}

// IncrementViews leaves the cached copy alone; its view count may lag by up to EventTTL.
func (r *eventRepository) IncrementViews(ctx context.Context, id uint) error {
	return internal(r.db.WithContext(ctx).Model(&models.Event{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error)
}

func eventFilterScope(f EventFilter, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Type != "" {
			db = db.Where("type = ?", f.Type)
		}
		if f.Upcoming {
			db = db.Where("start_date > ? AND status = ?", now, models.EventStatusPublished)
		} else if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.City != "" {
			db = db.Where(ilike("location_city"), containsPattern(f.City))
		}
		if f.Search != "" {
			pattern := containsPattern(f.Search)
			db = db.Where(ilike("name")+" OR "+ilike("description"), pattern, pattern)
		}
		return db
	}
}

func (r *eventRepository) List(ctx context.Context, f EventFilter, p Paging, now time.Time) ([]models.Event, int64, error) {
	defer r.metrics.TrackQuery("list")()
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Event{}).Scopes(eventFilterScope(f, now)).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var events []models.Event
	err := db.Scopes(eventFilterScope(f, now)).
		Order("start_date ASC, id ASC").
		Scopes(p.apply).
		Find(&events).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return events, total, nil
}

// Register adds or reactivates the user's registration. Capacity is checked
// against the locked event row.
func (r *eventRepository) Register(ctx context.Context, eventID, userID uint, teamID *uint, now time.Time) (*models.EventParticipant, error) {
	defer r.metrics.TrackQuery("register")()
	var participant models.EventParticipant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockForUpdate(tx).First(&event, eventID).Error; err != nil {
			return notFoundOr(err, "Event", eventID)
		}

		err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).First(&participant).Error
		switch {
		case err == nil && participant.Status != models.ParticipantCancelled:
			return models.NewConflictError("You are already registered for this event")
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		capacity := event.Registration.MaxParticipants
		if capacity > 0 && event.Registration.CurrentParticipants >= capacity {
			return models.NewValidationError("Event is full")
		}

		if participant.ID != 0 {
			participant.Status = models.ParticipantRegistered
			participant.RegisteredAt = now
			participant.TeamID = teamID
			err = tx.Model(&participant).Updates(map[string]interface{}{
				"status":        participant.Status,
				"registered_at": now,
				"team_id":       teamID,
			}).Error
		} else {
			participant = models.EventParticipant{
				EventID:      eventID,
				UserID:       userID,
				Status:       models.ParticipantRegistered,
				TeamID:       teamID,
				RegisteredAt: now,
			}
			err = tx.Create(&participant).Error
		}
		if err != nil {
			return err
		}
		return syncParticipantCount(tx, eventID)
	})
	if isUniqueViolation(err) {
		return nil, models.NewConflictError("You are already registered for this event")
	}
	if err != nil {
		r.log.LogError(ctx, err, "register")
		return nil, internal(err)
	}
	cache.InvalidateEvent(ctx, eventID)
	cache.InvalidateUserStats(ctx, userID)
	return &participant, nil
}

func (r *eventRepository) Unregister(ctx context.Context, eventID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.EventParticipant{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, models.ParticipantCancelled).
			Update("status", models.ParticipantCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Registration", eventID)
		}
		return syncParticipantCount(tx, eventID)
	})
	if err != nil {
		return internal(err)
	}
	cache.InvalidateEvent(ctx, eventID)
	cache.InvalidateUserStats(ctx, userID)
	return nil
}

func (r *eventRepository) ListParticipants(ctx context.Context, eventID uint, p Paging) ([]models.EventParticipant, int64, error) {
	db := readDB(r.db).WithContext(ctx)
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("event_id = ? AND status <> ?", eventID, models.ParticipantCancelled)
	}

	var total int64
	if err := db.Model(&models.EventParticipant{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var participants []models.EventParticipant
	err := db.Scopes(scope).Preload("User").Order("registered_at ASC, id ASC").Scopes(p.apply).Find(&participants).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return participants, total, nil
}
