package handlers

import (
	"context"
	"time"

	"github.com/alertdesk/backend/internal/db"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports database and redis reachability
type HealthHandler struct {
	Pool  *db.Pool
	Redis *redis.Client // nil when events are disabled
}

// GetHealth pings the database and redis and reports pool usage
// GET /health
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	dbState := "connected"
	if err := h.Pool.Ping(ctx); err != nil {
		status = fiber.StatusServiceUnavailable
		dbState = err.Error()
	}

	redisState := "disabled"
	if h.Redis != nil {
		redisState = "connected"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			status = fiber.StatusServiceUnavailable
			redisState = err.Error()
		}
	}

	stats := h.Pool.Stats()
	opts := h.Pool.Options()
	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": state,
		"db":     dbState,
		"redis":  redisState,
		"pool": fiber.Map{
			"min":     opts.MinConns,
			"max":     opts.MaxConns,
			"open":    stats.OpenConnections,
			"in_use":  stats.InUse,
			"idle":    stats.Idle,
			"waiting": stats.WaitCount,
		},
	})
}
