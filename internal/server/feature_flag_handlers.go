package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/admin/feature-flags. It returns the
// configured rollout values and how they evaluate for the caller.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope{data=object{raw=map[string]string,evaluated=map[string]bool}}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return respondData(c, fiber.StatusOK, "", fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}
	return respondData(c, fiber.StatusOK, "", fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	})
}
