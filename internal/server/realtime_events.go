package server

import (
	"context"
	"log/slog"

	"collegeconnect/internal/middleware"
	"collegeconnect/internal/notifications"
)

// realtimePublisher delivers service events to websocket clients. With Redis
// the event goes through pub/sub and every process's hub forwards it;
// without Redis only the local hub sees it.
type realtimePublisher struct {
	hub      *notifications.Hub
	notifier *notifications.Notifier
}

func newRealtimePublisher(hub *notifications.Hub, notifier *notifications.Notifier) *realtimePublisher {
	return &realtimePublisher{hub: hub, notifier: notifier}
}

func (p *realtimePublisher) encode(ctx context.Context, eventType string, payload interface{}) (string, bool) {
	message, err := notifications.NewEvent(eventType, payload).Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode realtime event",
			slog.String("event", eventType), slog.Any("error", err))
		return "", false
	}
	return message, true
}

func (p *realtimePublisher) PublishUser(ctx context.Context, userID uint, eventType string, payload interface{}) {
	message, ok := p.encode(ctx, eventType, payload)
	if !ok {
		return
	}
	if p.notifier.Enabled() {
		if err := p.notifier.PublishUser(ctx, userID, message); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish user event",
				slog.String("event", eventType), slog.Uint64("recipient_id", uint64(userID)), slog.Any("error", err))
		}
		return
	}
	if p.hub != nil {
		p.hub.SendToUser(userID, message)
	}
}

func (p *realtimePublisher) PublishBroadcast(ctx context.Context, eventType string, payload interface{}) {
	message, ok := p.encode(ctx, eventType, payload)
	if !ok {
		return
	}
	if p.notifier.Enabled() {
		if err := p.notifier.PublishBroadcast(ctx, message); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish broadcast event",
				slog.String("event", eventType), slog.Any("error", err))
		}
		return
	}
	if p.hub != nil {
		p.hub.BroadcastAll(message)
	}
}
