/**
 * @description
 * API Route definitions.
 * Builds the Fiber app, wires services into handlers and registers routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/services
 * - backend/internal/metrics
 */

package api

import (
	"errors"

	"github.com/alertdesk/backend/internal/api/handlers"
	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
	"github.com/alertdesk/backend/internal/metrics"
	"github.com/alertdesk/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Services bundles what the handlers depend on
type Services struct {
	Pool     *db.Pool
	Redis    *redis.Client // nil when events are disabled
	Alerts   *services.AlertService
	Holdings *services.HoldingService
	Events   *services.RedisAlertEvents // nil when events are disabled
	Hub      *services.AlertStreamHub   // nil when events are disabled
	Metrics  *metrics.Metrics
}

// NewServices wires the services around a pool. rdb may be nil.
// The caller starts and closes Hub.
func NewServices(pool *db.Pool, rdb *redis.Client, m *metrics.Metrics) *Services {
	s := &Services{
		Pool:     pool,
		Redis:    rdb,
		Holdings: services.NewHoldingService(pool),
		Metrics:  m,
	}

	var publisher services.AlertEventPublisher
	if rdb != nil {
		s.Events = services.NewRedisAlertEvents(rdb)
		s.Hub = services.NewAlertStreamHub(s.Events)
		publisher = s.Events
	}
	s.Alerts = services.NewAlertService(pool, publisher, m)
	return s
}

// NewApp creates the Fiber app with global middleware
func NewApp(cfg *config.Config, s *Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "Alertdesk",
		StrictRouting: true,
		CaseSensitive: true,
		ErrorHandler:  errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberLogger.New(fiberLogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		Output: logger.Writer(),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	if s.Metrics != nil {
		app.Use(s.Metrics.Middleware())
	}

	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, s *Services) {
	alertHandler := handlers.NewAlertHandler(s.Alerts)
	holdingsHandler := handlers.NewHoldingsHandler(s.Holdings)
	streamHandler := handlers.NewStreamHandler(s.Hub)
	healthHandler := &handlers.HealthHandler{Pool: s.Pool, Redis: s.Redis}

	app.Get("/health", healthHandler.GetHealth)
	if s.Metrics != nil {
		app.Get("/metrics", s.Metrics.Handler())
	}

	app.Get("/consolidated_holdings", holdingsHandler.GetConsolidatedHoldings)

	app.Get("/alerts", alertHandler.GetAlerts)
	app.Post("/alerts", alertHandler.CreateAlerts)
	app.Get("/alerts/stream", streamHandler.StreamAlertEvents)
	app.Put("/alerts/:id<int;min(1)>", alertHandler.UpdateAlert)
	app.Delete("/alerts/:id<int;min(1)>", alertHandler.DeleteAlert)
}

// errorHandler renders framework errors (unknown route, panics) as {"error": ...}
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
