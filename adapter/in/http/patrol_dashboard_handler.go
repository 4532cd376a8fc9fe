package http

import (
	"github.com/gofiber/fiber/v2"

	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/pkg/response"
)

// DashboardHandler serves the patrol dashboard aggregates.
type DashboardHandler struct {
	stats   in.StatsProvider
	flagger in.Flagger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(stats in.StatsProvider, flagger in.Flagger) *DashboardHandler {
	return &DashboardHandler{stats: stats, flagger: flagger}
}

// Register registers dashboard routes.
func (h *DashboardHandler) Register(router fiber.Router) {
	dashboard := router.Group("/dashboard")
	dashboard.Get("/stats", h.Stats)
	dashboard.Get("/evidence-stats", h.EvidenceStats)
	dashboard.Get("/feed", h.Feed)
}

// Stats returns the overview counters.
// @Summary Dashboard overview
// @Tags Dashboard
// @Produce json
// @Success 200 {object} domain.DashboardStats
// @Router /api/v1/dashboard/stats [get]
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	overview, err := h.stats.Overview(c.Context())
	if err != nil {
		return mapFlagError(err)
	}
	return response.OK(c, overview)
}

// EvidenceStats returns per-category and per-source evidence breakdowns.
func (h *DashboardHandler) EvidenceStats(c *fiber.Ctx) error {
	stats, err := h.stats.EvidenceStats(c.Context())
	if err != nil {
		return mapFlagError(err)
	}
	return response.OK(c, stats)
}

// Feed returns the most recently captured flagged items.
func (h *DashboardHandler) Feed(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := h.flagger.ListEvidence(c.Context(), &domain.EvidenceFilter{Limit: limit})
	if err != nil {
		return mapFlagError(err)
	}
	if items == nil {
		items = []*domain.FlaggedItem{}
	}

	return response.OKWithMeta(c, items, &response.Meta{
		Total:    total,
		PageSize: limit,
		HasMore:  len(items) < total,
	})
}
