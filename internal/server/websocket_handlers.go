package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"collegeconnect/internal/featureflags"
	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
	"collegeconnect/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	eventConnected   = "connected"
	eventPong        = "pong"
	eventUnreadCount = "unread_count"
	eventUserOnline  = "user_online"
	eventUserOffline = "user_offline"
)

// IssueWSTicket handles POST /api/ws/ticket. Browsers cannot set headers on
// a websocket upgrade, so the client trades its bearer token for a
// single-use ticket and passes it as ?ticket= instead.
// @Summary Issue a websocket ticket
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=object{ticket=string,expiresIn=int}}
// @Failure 403 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if s.featureFlags != nil && !s.featureFlags.Enabled(featureflags.RealtimeStream, userID) {
		return s.respondError(c, models.NewForbiddenError("Realtime updates are not enabled for this account"))
	}
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeInternal, Message: "Realtime tickets are unavailable"})
	}

	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), wsTicketPrefix+ticket, strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("ws_ticket").Inc()
		return s.respondError(c, models.NewInternalError(err))
	}

	return respondData(c, fiber.StatusOK, "", fiber.Map{
		"ticket":    ticket,
		"expiresIn": int(wsTicketTTL.Seconds()),
	})
}

type wsInbound struct {
	Type string `json:"type"`
}

// WebsocketHandler streams realtime events to the authenticated caller.
// Clients may send {"type":"ping"} and {"type":"unread_count"}.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","payload":{"message":"unauthorized"}}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed", slog.Uint64("user_id", uint64(userID)), slog.Any("error", err))
			_ = conn.WriteMessage(websocket.TextMessage, encodeEvent("error", fiber.Map{"message": err.Error()}))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(cl *notifications.Client, message []byte) {
			var in wsInbound
			if err := json.Unmarshal(message, &in); err != nil {
				return
			}
			switch in.Type {
			case "ping":
				cl.TrySend(encodeEvent(eventPong, nil))
			case "unread_count":
				s.sendUnreadCount(cl)
			}
		}

		client.TrySend(encodeEvent(eventConnected, fiber.Map{"userId": userID}))
		s.sendUnreadCount(client)

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) sendUnreadCount(cl *notifications.Client) {
	count, err := s.notificationService.CountUnread(context.Background(), cl.UserID)
	if err != nil {
		middleware.Logger.Warn("unread count failed", slog.Uint64("user_id", uint64(cl.UserID)), slog.Any("error", err))
		return
	}
	cl.TrySend(encodeEvent(eventUnreadCount, fiber.Map{"unread": count}))
}

func encodeEvent(eventType string, payload interface{}) []byte {
	raw, err := notifications.NewEvent(eventType, payload).Encode()
	if err != nil {
		return nil
	}
	return []byte(raw)
}

// wirePresence broadcasts online/offline transitions to every client.
func (s *Server) wirePresence() {
	publisher := newRealtimePublisher(s.hub, s.notifier)
	s.hub.SetPresenceCallbacks(
		func(userID uint) {
			publisher.PublishBroadcast(context.Background(), eventUserOnline, fiber.Map{"userId": userID})
		},
		func(userID uint) {
			publisher.PublishBroadcast(context.Background(), eventUserOffline, fiber.Map{"userId": userID})
		},
	)
}
