package http

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"patrol_server/adapter/out/realtime"
	"patrol_server/core/domain"
	in "patrol_server/core/port/in"
	"patrol_server/pkg/response"
)

// AlertHandler streams high-risk alerts to dashboard clients over SSE.
type AlertHandler struct {
	hub     *realtime.SSEAdapter
	flagger in.Flagger
	log     zerolog.Logger
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(hub *realtime.SSEAdapter, flagger in.Flagger, log zerolog.Logger) *AlertHandler {
	return &AlertHandler{
		hub:     hub,
		flagger: flagger,
		log:     log.With().Str("handler", "alerts").Logger(),
	}
}

// Register registers alert routes.
func (h *AlertHandler) Register(router fiber.Router) {
	alerts := router.Group("/alerts")
	alerts.Get("/stream", h.Stream)
	alerts.Get("/recent", h.Recent)
	alerts.Get("/status", h.Status)
}

// Stream handles SSE connections for the alert feed.
func (h *AlertHandler) Stream(c *fiber.Ctx) error {
	client := h.hub.NewClient()

	h.log.Info().
		Int("total_connections", h.hub.ConnectedCount()).
		Msg("alert stream client connected")

	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(client.HeartbeatInterval())
		defer ticker.Stop()
		defer func() {
			client.Close()
			h.log.Info().Msg("alert stream client disconnected")
		}()

		// Send initial connection event
		w.WriteString("event: connected\n")
		w.WriteString("data: {\"status\":\"connected\"}\n\n")
		w.Flush()

		for {
			select {
			case event, ok := <-client.Events:
				if !ok {
					return
				}

				data, err := realtime.SerializeEvent(event)
				if err != nil {
					h.log.Error().Err(err).Msg("failed to serialize alert")
					continue
				}

				w.WriteString("event: alert\n")
				w.WriteString("data: ")
				w.Write(data)
				w.WriteString("\n\n")

				if err := w.Flush(); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during write")
					return
				}

			case <-ticker.C:
				w.WriteString(": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					h.log.Debug().Err(err).Msg("client disconnected during heartbeat")
					return
				}

			case <-client.Done:
				return
			}
		}
	})

	return nil
}

// Recent returns the latest high-risk items for clients that connect
// after the events were broadcast.
func (h *AlertHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, _, err := h.flagger.ListEvidence(c.Context(), &domain.EvidenceFilter{
		MinScore: 70,
		Limit:    limit,
	})
	if err != nil {
		return mapFlagError(err)
	}
	if items == nil {
		items = []*domain.FlaggedItem{}
	}

	return response.OK(c, items)
}

// Status returns SSE hub counters.
func (h *AlertHandler) Status(c *fiber.Ctx) error {
	return response.OK(c, h.hub.Metrics())
}
