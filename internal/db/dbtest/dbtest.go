// Package dbtest provides a throwaway SQLite-backed db.Pool for tests.
package dbtest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/alertdesk/backend/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// The SQLite stand-in for the Postgres schema. create_date keeps millisecond
// precision so ordering tests do not tie on the second.
var ddl = []string{
	`CREATE TABLE alerts (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol          TEXT NOT NULL,
		alert_type      TEXT NOT NULL,
		alert_direction TEXT NOT NULL,
		alert_level     TEXT NOT NULL,
		note            TEXT,
		create_date     TIMESTAMP NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
	)`,
	`CREATE TABLE consolidated_holdings (
		symbol       TEXT PRIMARY KEY,
		quantity     REAL NOT NULL DEFAULT 0,
		market_value REAL
	)`,
}

// Option adjusts the pool bounds before the pool is built
type Option func(*db.PoolOptions)

// WithOptions replaces the pool bounds
func WithOptions(o db.PoolOptions) Option {
	return func(p *db.PoolOptions) { *p = o }
}

// NewPool opens a fresh database under t.TempDir(). The default pool holds a single
// connection; WithOptions widens it for concurrency tests.
func NewPool(t testing.TB, opts ...Option) *db.Pool {
	t.Helper()

	// WAL plus immediate transactions let pools wider than one connection queue
	// writers on busy_timeout instead of failing with SQLITE_BUSY.
	dsn := "file:" + filepath.Join(t.TempDir(), "alerts.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	gdb, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	for _, stmt := range ddl {
		if err := gdb.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	o := db.PoolOptions{MinConns: 1, MaxConns: 1}
	for _, opt := range opts {
		opt(&o)
	}

	pool, err := db.NewPool(gdb, o)
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// RecomputeNotes mirrors update_alert_notes() closely enough for tests:
// every note becomes "<type> <direction> <level>".
func RecomputeNotes(tx *gorm.DB) error {
	return tx.Exec(`UPDATE alerts SET note = alert_type || ' ' || alert_direction || ' ' || alert_level`).Error
}

// RejectLevel installs a trigger that aborts any insert of the given alert level.
func RejectLevel(t testing.TB, pool *db.Pool, level string) {
	t.Helper()

	stmt := `CREATE TRIGGER reject_level BEFORE INSERT ON alerts
		WHEN NEW.alert_level = '` + level + `'
		BEGIN SELECT RAISE(ABORT, 'alert level rejected'); END`
	if err := pool.WithConn(t.Context(), func(tx *gorm.DB) error {
		return tx.Exec(stmt).Error
	}); err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}
}

// RejectStatement installs a trigger that aborts every UPDATE or DELETE on alerts
// with "alert <op> rejected".
func RejectStatement(t testing.TB, pool *db.Pool, op string) {
	t.Helper()

	op = strings.ToUpper(op)
	if op != "UPDATE" && op != "DELETE" {
		t.Fatalf("RejectStatement: unsupported op %q", op)
	}
	stmt := `CREATE TRIGGER reject_` + strings.ToLower(op) + ` BEFORE ` + op + ` ON alerts
		BEGIN SELECT RAISE(ABORT, 'alert ` + strings.ToLower(op) + ` rejected'); END`
	if err := pool.WithConn(t.Context(), func(tx *gorm.DB) error {
		return tx.Exec(stmt).Error
	}); err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}
}

// CountAlerts returns the number of rows in alerts
func CountAlerts(t testing.TB, pool *db.Pool) int64 {
	t.Helper()

	var n int64
	if err := pool.WithConn(t.Context(), func(tx *gorm.DB) error {
		return tx.Table("alerts").Count(&n).Error
	}); err != nil {
		t.Fatalf("failed to count alerts: %v", err)
	}
	return n
}
