/**
 * @description
 * Alert change stream over Server-Sent Events.
 * Relays events from the AlertStreamHub to connected clients.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/alertdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const streamHeartbeat = 15 * time.Second

// StreamHandler serves the alert event stream
type StreamHandler struct {
	Hub *services.AlertStreamHub // nil when Redis is disabled
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(hub *services.AlertStreamHub) *StreamHandler {
	return &StreamHandler{Hub: hub}
}

// StreamAlertEvents streams alert change events over SSE
// GET /alerts/stream
func (h *StreamHandler) StreamAlertEvents(c *fiber.Ctx) error {
	if h.Hub == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Alert event stream is disabled",
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	events, unsubscribe := h.Hub.Subscribe()
	requestDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		// Flush headers right away so clients see the stream open.
		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-requestDone:
				return
			case <-heartbeat.C:
				// Comment line; a failed flush means the client went away.
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case payload, ok := <-events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: alert\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
