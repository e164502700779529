package main

import (
	"context"
	"time"

	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/db"
	"github.com/alertdesk/backend/internal/logger"
)

func main() {
	logger.Info("🚀 Applying alertdesk schema...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	pool, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("schema migration failed: %v", err)
	}

	logger.Info("✅ Schema applied successfully.")
}
