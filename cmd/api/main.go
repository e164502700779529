/**
 * @description
 * Main entry point for the Alertdesk API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/alertdesk/backend/internal/config: Config loader
 * - github.com/alertdesk/backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Postgres (bounded pool) and, when configured, Redis on startup.
 * - Drains in-flight requests on SIGINT/SIGTERM before closing the pool.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alertdesk/backend/internal/api"
	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
	"github.com/alertdesk/backend/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 2. Initialize Database Connections
	pool, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}

	// Redis is optional; nil disables change events and the stream endpoint
	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}

	// 3. Metrics, Services, App
	m := metrics.New()
	m.RegisterPool(pool.SQLDB())

	s := api.NewServices(pool, redisClient, m)
	if s.Hub != nil {
		s.Hub.Start(context.Background())
	}
	app := api.NewApp(cfg, s)
	api.SetupRoutes(app, s)

	// 4. Start Server
	go func() {
		logger.Info("🚀 Starting Alertdesk API on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 5. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	// Ends open event streams so the server can drain.
	if s.Hub != nil {
		s.Hub.Close()
	}
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("Server shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis: %v", err)
		}
	}
	if err := pool.Close(); err != nil {
		logger.Error("Error closing database pool: %v", err)
	}
	logger.Info("API exited.")
}
