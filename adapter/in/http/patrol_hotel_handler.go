package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/pkg/apperr"
	"patrol_server/pkg/response"
)

// HotelHandler handles HTTP requests for hotel verification.
type HotelHandler struct {
	verifier in.HotelVerifier
}

// NewHotelHandler creates a new HotelHandler.
func NewHotelHandler(verifier in.HotelVerifier) *HotelHandler {
	return &HotelHandler{verifier: verifier}
}

// Register registers hotel routes.
func (h *HotelHandler) Register(router fiber.Router) {
	hotels := router.Group("/hotels")
	hotels.Get("/", h.List)
	hotels.Post("/check", h.Check)
	hotels.Get("/stats", h.Stats)
	hotels.Post("/registry", h.ReloadRegistry)
}

// Check verifies a claimed hotel against the trusted registry.
// @Summary Verify a hotel claim
// @Tags Hotels
// @Accept json
// @Produce json
// @Param request body domain.HotelClaim true "Hotel claim"
// @Success 200 {object} domain.HotelRecord
// @Router /api/v1/hotels/check [post]
func (h *HotelHandler) Check(c *fiber.Ctx) error {
	var claim domain.HotelClaim
	if err := c.BodyParser(&claim); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	record, err := h.verifier.Verify(c.Context(), &claim)
	if err != nil {
		return mapHotelError(err)
	}

	return response.OK(c, record)
}

// List returns verification checks, newest first.
// @Summary List hotel checks
// @Tags Hotels
// @Produce json
// @Param status query string false "Filter by verification status"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 50)"
// @Success 200 {array} domain.HotelRecord
// @Router /api/v1/hotels [get]
func (h *HotelHandler) List(c *fiber.Ctx) error {
	pagination := response.GetPagination(c, 50, 200)

	filter := &domain.HotelFilter{
		Status: domain.VerificationStatus(c.Query("status")),
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}

	records, total, err := h.verifier.ListChecks(c.Context(), filter)
	if err != nil {
		return mapHotelError(err)
	}
	if records == nil {
		records = []*domain.HotelRecord{}
	}

	return response.OKWithMeta(c, records, &response.Meta{
		Total:    total,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		HasMore:  pagination.Offset+len(records) < total,
	})
}

// Stats returns hotel verification counters.
func (h *HotelHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.verifier.Stats(c.Context())
	if err != nil {
		return mapHotelError(err)
	}
	return response.OK(c, stats)
}

// ReloadRegistry replaces the trusted registry from an uploaded CSV
// body (name,domain per row).
func (h *HotelHandler) ReloadRegistry(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return apperr.MissingField("csv body")
	}

	count, err := h.verifier.ReloadRegistry(c.Context(), body)
	if err != nil {
		return mapHotelError(err)
	}

	return response.OK(c, fiber.Map{"loaded": count})
}

func mapHotelError(err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return apperr.InvalidInput(vErr.Field, vErr.Reason)
	}
	return mapFlagError(err)
}
