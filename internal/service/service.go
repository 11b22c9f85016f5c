// Package service holds the business rules that sit between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
)

// AdminCheck reports whether a user holds the admin role.
type AdminCheck func(ctx context.Context, userID uint) (bool, error)

// Realtime event types pushed to websocket clients.
const (
	EventPostCreated        = "post_created"
	EventPostVoteUpdated    = "post_vote_updated"
	EventCommentCreated     = "comment_created"
	EventCommentVoteUpdated = "comment_vote_updated"
	EventNotification       = "notification"
	EventJoinRequestUpdated = "join_request_updated"
	EventMembershipChanged  = "membership_changed"
	EventRegistrationUpdate = "event_registration_updated"
)

// Publisher fans realtime events out to connected clients. Delivery is
// fire and forget; implementations log their own failures.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, eventType string, payload interface{})
	PublishBroadcast(ctx context.Context, eventType string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) PublishUser(context.Context, uint, string, interface{}) {}
func (nopPublisher) PublishBroadcast(context.Context, string, interface{}) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// authorize passes when userID owns the resource or is an admin.
func authorize(ctx context.Context, isAdmin AdminCheck, ownerID, userID uint, message string) error {
	if ownerID == userID {
		return nil
	}
	if isAdmin == nil {
		return models.NewForbiddenError(message)
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(message)
	}
	return nil
}

// logSideEffect records a failed post-commit step. The primary operation has
// already succeeded, so the caller carries on.
func logSideEffect(ctx context.Context, step string, err error) {
	if err == nil {
		return
	}
	middleware.Logger.WarnContext(ctx, "side effect failed", slog.String("step", step), slog.Any("error", err))
}
