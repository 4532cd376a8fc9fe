package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"patrol_server/adapter/out/persistence"
	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/core/service/risk"
	"patrol_server/pkg/apperr"
	"patrol_server/pkg/response"
)

// FlagHandler handles HTTP requests for the flagging pipeline.
type FlagHandler struct {
	flagger in.Flagger
	scorer  *risk.Scorer
}

// NewFlagHandler creates a new FlagHandler.
func NewFlagHandler(flagger in.Flagger, scorer *risk.Scorer) *FlagHandler {
	return &FlagHandler{flagger: flagger, scorer: scorer}
}

// Register registers flagging routes.
func (h *FlagHandler) Register(router fiber.Router) {
	flag := router.Group("/flag")
	flag.Post("/message", h.FlagMessage)
	flag.Post("/batch", h.FlagBatch)
	flag.Post("/analyze", h.Analyze)
}

// CaptureRequest is the HTTP body for a single capture.
type CaptureRequest struct {
	Source     string     `json:"source"`
	Author     string     `json:"author"`
	URL        string     `json:"url"`
	Text       string     `json:"text"`
	CapturedAt *time.Time `json:"captured_at"`
}

func (r *CaptureRequest) toInput() domain.NormalizedInput {
	capturedAt := time.Now().UTC()
	if r.CapturedAt != nil {
		capturedAt = r.CapturedAt.UTC()
	}
	return domain.NormalizedInput{
		Source:     domain.Source(r.Source),
		Author:     r.Author,
		URL:        r.URL,
		Text:       r.Text,
		CapturedAt: capturedAt,
	}
}

// FlagMessageResponse wraps the flagging outcome for one capture.
type FlagMessageResponse struct {
	Flagged   bool                `json:"flagged"`
	Item      *domain.FlaggedItem `json:"item,omitempty"`
	RiskScore int                 `json:"risk_score"`
	Category  domain.RiskCategory `json:"category"`
}

// FlagMessage scores one capture and stores it when it crosses the
// flagging threshold.
// @Summary Flag a single capture
// @Tags Flagging
// @Accept json
// @Produce json
// @Param request body CaptureRequest true "Capture data"
// @Success 200 {object} FlagMessageResponse
// @Router /api/v1/flag/message [post]
func (h *FlagHandler) FlagMessage(c *fiber.Ctx) error {
	var req CaptureRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	input := req.toInput()
	item, err := h.flagger.Flag(c.Context(), &input)
	if err != nil {
		return mapFlagError(err)
	}

	if item == nil {
		// Below threshold: report the score without storing anything.
		result := h.scorer.Score(input.Text)
		return response.OK(c, FlagMessageResponse{
			Flagged:   false,
			RiskScore: result.Score,
			Category:  result.Category,
		})
	}

	return response.OK(c, FlagMessageResponse{
		Flagged:   true,
		Item:      item,
		RiskScore: item.RiskScore,
		Category:  item.Category,
	})
}

// FlagBatch processes a batch of captures with per-item error
// reporting.
// @Summary Flag a batch of captures
// @Tags Flagging
// @Accept json
// @Produce json
// @Param request body object true "Batch of captures"
// @Success 200 {object} in.BatchResult
// @Router /api/v1/flag/batch [post]
func (h *FlagHandler) FlagBatch(c *fiber.Ctx) error {
	var req struct {
		Items []CaptureRequest `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if len(req.Items) == 0 {
		return apperr.MissingField("items")
	}

	inputs := make([]domain.NormalizedInput, len(req.Items))
	for i := range req.Items {
		inputs[i] = req.Items[i].toInput()
	}

	result, err := h.flagger.FlagBatch(c.Context(), inputs)
	if err != nil {
		return mapFlagError(err)
	}

	return response.OK(c, result)
}

// Analyze scores a text without persisting anything. Used by the
// dashboard for ad-hoc checks.
func (h *FlagHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.Text == "" {
		return apperr.MissingField("text")
	}

	result := h.scorer.Score(req.Text)
	return response.OK(c, fiber.Map{
		"risk_score":         result.Score,
		"risk_level":         domain.LevelForScore(result.Score),
		"category":           result.Category,
		"matched_keywords":   result.MatchedKeywords,
		"recommended_action": domain.RecommendedAction(result.Category),
	})
}

// mapFlagError converts service errors to AppErrors for the global
// error handler.
func mapFlagError(err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return apperr.InvalidInput(vErr.Field, vErr.Reason)
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return apperr.NotFound("evidence")
	}
	if errors.Is(err, persistence.ErrStoreUnavailable) {
		return apperr.StoreUnavailable(err)
	}
	return err
}
