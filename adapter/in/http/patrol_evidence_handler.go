package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/pkg/apperr"
	"patrol_server/pkg/response"
)

// SnapshotReader fetches archived raw payloads for flagged items. Nil
// when the snapshot archive is disabled.
type SnapshotReader interface {
	GetSnapshot(ctx context.Context, itemID int64) ([]byte, error)
}

// EvidenceHandler handles HTTP requests for the evidence store.
type EvidenceHandler struct {
	flagger   in.Flagger
	snapshots SnapshotReader
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(flagger in.Flagger, snapshots SnapshotReader) *EvidenceHandler {
	return &EvidenceHandler{flagger: flagger, snapshots: snapshots}
}

// Register registers evidence routes.
func (h *EvidenceHandler) Register(router fiber.Router) {
	evidence := router.Group("/evidence")
	evidence.Get("/", h.List)
	evidence.Get("/:id", h.Get)
	evidence.Get("/:id/snapshot", h.GetSnapshot)
}

// List returns flagged items newest first with filters.
// @Summary List evidence
// @Tags Evidence
// @Produce json
// @Param source query string false "Filter by source"
// @Param category query string false "Filter by category"
// @Param min_score query int false "Minimum risk score"
// @Param since query string false "Captured after (RFC3339)"
// @Param q query string false "Text search"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50)"
// @Success 200 {array} domain.FlaggedItem
// @Router /api/v1/evidence [get]
func (h *EvidenceHandler) List(c *fiber.Ctx) error {
	pagination := response.GetPagination(c, 50, 200)

	filter := &domain.EvidenceFilter{
		Source:    domain.Source(c.Query("source")),
		Category:  domain.RiskCategory(c.Query("category")),
		MinScore:  c.QueryInt("min_score", 0),
		TextQuery: c.Query("q"),
		Limit:     pagination.Limit,
		Offset:    pagination.Offset,
	}

	if filter.Source != "" && !domain.ValidSource(filter.Source) {
		return apperr.InvalidInput("source", "must be telegram, instagram or other")
	}
	if sinceStr := c.Query("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return apperr.InvalidInput("since", "must be RFC3339")
		}
		filter.Since = &since
	}

	items, total, err := h.flagger.ListEvidence(c.Context(), filter)
	if err != nil {
		return mapFlagError(err)
	}
	if items == nil {
		items = []*domain.FlaggedItem{}
	}

	return response.OKWithMeta(c, items, &response.Meta{
		Total:    total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		HasMore:  pagination.Offset+len(items) < total,
	})
}

// Get returns one flagged item by ID.
// @Summary Get evidence by ID
// @Tags Evidence
// @Produce json
// @Param id path int true "Evidence ID"
// @Success 200 {object} domain.FlaggedItem
// @Router /api/v1/evidence/{id} [get]
func (h *EvidenceHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperr.InvalidInput("id", "must be an integer")
	}

	item, err := h.flagger.GetEvidence(c.Context(), id)
	if err != nil {
		return mapFlagError(err)
	}

	return response.OK(c, item)
}

// GetSnapshot returns the raw capture payload archived for an item.
func (h *EvidenceHandler) GetSnapshot(c *fiber.Ctx) error {
	if h.snapshots == nil {
		return apperr.New(apperr.CodeNotFound, "snapshot archive is disabled", fiber.StatusNotFound)
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return apperr.InvalidInput("id", "must be an integer")
	}

	raw, err := h.snapshots.GetSnapshot(c.Context(), id)
	if err != nil {
		return apperr.NotFound("snapshot")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Send(raw)
}
