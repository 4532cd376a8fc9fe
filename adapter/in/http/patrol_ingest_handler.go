package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/pkg/apperr"
	"patrol_server/pkg/response"
)

// IngestHandler triggers pull-based collection runs against the
// monitored sources.
type IngestHandler struct {
	ingestor in.Ingestor
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestor in.Ingestor) *IngestHandler {
	return &IngestHandler{ingestor: ingestor}
}

// Register registers ingestion routes. limiter throttles the
// scrape-triggering endpoints per client IP.
func (h *IngestHandler) Register(router fiber.Router, limiter fiber.Handler) {
	ingest := router.Group("/ingest")
	if limiter != nil {
		ingest.Use(limiter)
	}
	ingest.Post("/telegram", h.IngestTelegram)
	ingest.Post("/instagram", h.IngestInstagram)
}

// IngestTelegram collects recent posts from public Telegram channels
// and runs them through the flagging pipeline.
// @Summary Ingest Telegram channels
// @Tags Ingest
// @Accept json
// @Produce json
// @Param request body object true "Channel names"
// @Success 200 {array} in.IngestResult
// @Router /api/v1/ingest/telegram [post]
func (h *IngestHandler) IngestTelegram(c *fiber.Ctx) error {
	var req struct {
		Channels []string `json:"channels"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if len(req.Channels) == 0 {
		return apperr.MissingField("channels")
	}

	return h.run(c, domain.SourceTelegram, req.Channels)
}

// IngestInstagram collects recent posts for public Instagram hashtags.
// @Summary Ingest Instagram hashtags
// @Tags Ingest
// @Accept json
// @Produce json
// @Param request body object true "Hashtags"
// @Success 200 {array} in.IngestResult
// @Router /api/v1/ingest/instagram [post]
func (h *IngestHandler) IngestInstagram(c *fiber.Ctx) error {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if len(req.Tags) == 0 {
		return apperr.MissingField("tags")
	}

	return h.run(c, domain.SourceInstagram, req.Tags)
}

func (h *IngestHandler) run(c *fiber.Ctx, source domain.Source, targets []string) error {
	results, err := h.ingestor.Ingest(c.Context(), source, targets)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return apperr.InvalidInput(vErr.Field, vErr.Reason)
		}
		return mapFlagError(err)
	}

	return response.OK(c, results)
}
