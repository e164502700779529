/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Opens the database and wraps it in the bounded Pool handed to the services.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver (pgx v5)
 */

package db

import (
	"time"

	"github.com/alertdesk/backend/internal/config"
	"github.com/alertdesk/backend/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectPostgres initializes the PostgreSQL connection pool
func ConnectPostgres(cfg *config.Config) (*Pool, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.DSN(),
		PreferSimpleProtocol: true, // allows multi-statement schema exec and avoids stmtcache collisions behind poolers
	}), &gorm.Config{
		Logger: NewGormLogger(cfg.Server.Env),
	})
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(db, PoolOptions{
		MinConns:        cfg.DB.MinConns,
		MaxConns:        cfg.DB.MaxConns,
		AcquireTimeout:  cfg.DB.AcquireTimeout,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("✅ Connected to PostgreSQL (pool %d..%d conns)", cfg.DB.MinConns, cfg.DB.MaxConns)
	return pool, nil
}

// NewGormLogger routes GORM's SQL log through the application logger.
// Verbosity follows the environment like the rest of the stack.
func NewGormLogger(env string) gormLogger.Interface {
	level := gormLogger.Error
	switch env {
	case "development":
		level = gormLogger.Info
	case "staging":
		level = gormLogger.Warn
	case "test":
		level = gormLogger.Silent
	}

	return gormLogger.New(logger.InfoLogger, gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
