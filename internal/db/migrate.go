package db

import (
	"context"
	_ "embed"

	"gorm.io/gorm"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the bootstrap DDL applied by Migrate
func Schema() string {
	return schemaSQL
}

// Migrate applies the bootstrap schema. Needs the simple query protocol for multi-statement exec.
func Migrate(ctx context.Context, pool *Pool) error {
	return pool.WithConn(ctx, func(db *gorm.DB) error {
		return db.Exec(schemaSQL).Error
	})
}
