// Package db opens the database, applies the schema and seeds reference data.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-ppat/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects with the configured driver, retrying while PostgreSQL starts.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	if cfg.Driver == "sqlite" {
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.DSN())), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}

	dsn := NormalizeDSN(cfg.DSN())
	slog.Info("connecting to database", "dsn", MaskDSN(dsn))
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		slog.Warn("database not ready, retrying", "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if err := db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}
