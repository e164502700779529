package handlers

import (
	"errors"

	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
	"github.com/alertdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto a status code and {"error": ...} body.
// Storage errors carry the database's own message.
func respondError(c *fiber.Ctx, op string, err error) error {
	var storageErr *services.StorageError

	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Alert not found"})

	case errors.Is(err, db.ErrPoolExhausted), errors.Is(err, db.ErrConnection):
		logger.Error("%s: %v", op, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})

	case errors.As(err, &storageErr):
		if storageErr.Code != "" {
			logger.Error("%s: %s failed (SQLSTATE %s): %v", op, storageErr.Op, storageErr.Code, err)
		} else {
			logger.Error("%s: %s failed: %v", op, storageErr.Op, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})

	default:
		logger.Error("%s: %v", op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
