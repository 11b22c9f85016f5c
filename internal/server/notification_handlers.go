package server

import (
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param status query string false "unread, read or archived"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.ListEnvelope
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page, err := s.notificationService.List(c.UserContext(), currentUserID(c), c.Query("status"),
		parsePaging(c, service.DefaultPageLimit))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondPage(c, page)
}

// GetUnreadCount handles GET /api/notifications/count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=object{unread=int}}
// @Router /notifications/count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.CountUnread(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "", fiber.Map{"unread": count})
}

// MarkNotificationsRead handles PUT /api/notifications/read
// @Summary Mark notifications read
// @Description Marks the given ids, or every unread notification when ids is empty.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{ids=[]int} false "Notification IDs"
// @Success 200 {object} models.Envelope{data=object{updated=int}}
// @Router /notifications/read [put]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	updated, err := s.notificationService.MarkRead(c.UserContext(), currentUserID(c), req.IDs)
	if err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Notifications marked as read", fiber.Map{"updated": updated})
}

// ArchiveNotification handles PUT /api/notifications/:id/archive
// @Summary Archive notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/archive [put]
func (s *Server) ArchiveNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificationService.Archive(c.UserContext(), currentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}
	return respondData(c, fiber.StatusOK, "Notification archived", nil)
}
