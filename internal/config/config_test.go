package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "DATABASE_DSN", "MIN_PAYMENT_AMOUNT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(1000), cfg.Billing.MinPaymentAmount)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Contains(t, cfg.Database.DSN(), "dbname=ppat")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIN_PAYMENT_AMOUNT", "5000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", "ppat.db")
	t.Setenv("MIGRATIONS", "yes")
	cfg := Load()
	assert.Equal(t, int64(5000), cfg.Billing.MinPaymentAmount)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "ppat.db", cfg.Database.DSN())
	assert.True(t, cfg.App.Migrations)
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "db", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/db?sslmode=disable", d.URL())
	d.RawDSN = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", d.URL())
}
