/**
 * @description
 * Holdings API Handler.
 * Returns the consolidated holdings table as-is.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/alertdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// HoldingsHandler handles holdings requests
type HoldingsHandler struct {
	service *services.HoldingService
}

// NewHoldingsHandler creates a new HoldingsHandler
func NewHoldingsHandler(service *services.HoldingService) *HoldingsHandler {
	return &HoldingsHandler{
		service: service,
	}
}

// GetConsolidatedHoldings returns every holdings row
// GET /consolidated_holdings
func (h *HoldingsHandler) GetConsolidatedHoldings(c *fiber.Ctx) error {
	holdings, err := h.service.ListHoldings(c.Context())
	if err != nil {
		return respondError(c, "HoldingsHandler.GetConsolidatedHoldings", err)
	}
	return c.JSON(holdings)
}
