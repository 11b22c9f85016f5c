package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"collegeconnect/internal/middleware"
	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
	"collegeconnect/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parsePaging reads the page and limit query parameters.
func parsePaging(c *fiber.Ctx, defaultLimit int) repository.Paging {
	return service.NewPaging(c.Query("page"), c.Query("limit"), defaultLimit)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "userId" -> "Invalid user ID", "milestoneId" -> "Invalid milestone ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// parseBody decodes the JSON body into dst, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the caller set by AuthRequired, or zero.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// respondError maps err to its status and writes the error envelope.
// Anything that is not an AppError is treated as internal and logged.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	if appErr.Code == models.CodeInternal {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
	}
	return models.RespondWithError(c, models.HTTPStatus(appErr), appErr)
}

func respondData(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(models.Envelope{Success: true, Message: message, Data: data})
}

func respondPage[T any](c *fiber.Ctx, page models.Page[T]) error {
	return c.JSON(page.Envelope())
}

// isAdmin checks whether the given user has admin privileges.
func (s *Server) isAdmin(c *fiber.Ctx, userID uint) (bool, error) {
	return s.isAdminByUserID(c.UserContext(), userID)
}

// isAdminByUserID looks the role up on every call so a demotion takes
// effect without waiting for tokens to expire.
func (s *Server) isAdminByUserID(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsActive && user.IsAdmin(), nil
}
