package http

import (
	"github.com/gofiber/fiber/v2"

	"patrol_server/core/service/risk"
	"patrol_server/pkg/response"
)

// SettingsHandler exposes read-only runtime configuration such as the
// active keyword taxonomy.
type SettingsHandler struct {
	scorer    *risk.Scorer
	threshold int
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(scorer *risk.Scorer, threshold int) *SettingsHandler {
	return &SettingsHandler{scorer: scorer, threshold: threshold}
}

// Register registers settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	settings := router.Group("/settings")
	settings.Get("/taxonomy", h.Taxonomy)
}

// Taxonomy returns the active keyword taxonomy and flagging threshold.
func (h *SettingsHandler) Taxonomy(c *fiber.Ctx) error {
	return response.OK(c, fiber.Map{
		"threshold": h.threshold,
		"taxonomy":  h.scorer.Taxonomy(),
	})
}
