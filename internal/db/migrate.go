package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diewo77/go-ppat/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies the schema. With useSQL it runs the embedded versioned SQL
// migrations against migrateURL (PostgreSQL only); otherwise it falls back to
// gorm AutoMigrate, which is what SQLite and development use.
func Migrate(db *gorm.DB, useSQL bool, migrateURL string) error {
	if useSQL && db.Dialector.Name() == "postgres" {
		slog.Info("running sql migrations")
		if err := runSQLMigrations(migrateURL); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		for _, m := range models.All() {
			if err := db.AutoMigrate(m); err != nil {
				return fmt.Errorf("automigrate %T: %w", m, err)
			}
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "companies", "orders", "payments", "activity_logs"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, ToURLDSN(url))
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
