/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Periodically rerunning update_alert_notes() so notes track holdings.
 * 2. Logging alert change events from Redis, when configured.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 */

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
	"github.com/alertdesk/backend/internal/models"
	"github.com/alertdesk/backend/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	logger.Info("🔥 Starting Alertdesk Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 2. Connect DBs
	pool, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	defer pool.Close()

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	alertService := services.NewAlertService(pool, nil, nil)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Note refresh loop
	go func() {
		ticker := time.NewTicker(cfg.Worker.NotesInterval)
		defer ticker.Stop()

		// Initial refresh
		refreshNotes(ctx, alertService)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshNotes(ctx, alertService)
			}
		}
	}()

	// 6. Event log
	if redisClient != nil {
		defer redisClient.Close()
		go logEvents(ctx, services.NewRedisAlertEvents(redisClient))
	}

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker exited.")
}

// refreshNotes recomputes every alert note in one transaction
func refreshNotes(ctx context.Context, s *services.AlertService) {
	start := time.Now()
	if err := s.RefreshNotes(ctx); err != nil {
		logger.Error("Failed to refresh alert notes: %v", err)
		return
	}
	logger.Info("🔄 Alert notes refreshed in %s", time.Since(start).Round(time.Millisecond))
}

// logEvents writes each alert change event to the info log until ctx ends
func logEvents(ctx context.Context, events *services.RedisAlertEvents) {
	pubsub := events.Subscribe(ctx)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event models.AlertEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn("Skipping malformed alert event: %v", err)
				continue
			}
			logger.WithFields(logrus.Fields{
				"event_id":  event.ID,
				"type":      event.Type,
				"alert_ids": event.AlertIDs,
				"symbol":    event.Symbol,
			}).Info("alert change")
		}
	}
}
