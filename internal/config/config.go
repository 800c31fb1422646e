// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Storage  StorageConfig
	Billing  BillingConfig
	Auth     AuthConfig
	Backup   BackupConfig
	LogLevel slog.Level
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
// A non-empty RawDSN wins over the individual fields.
type DatabaseConfig struct {
	Driver   string
	RawDSN   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
}

type StorageConfig struct {
	Root           string
	MaxUploadBytes int64
	MaxProofBytes  int64
	MaxImageWidth  int
}

type BillingConfig struct {
	// MinPaymentAmount is the smallest accepted payment in rupiah.
	MinPaymentAmount int64
}

type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	ProfileTTL    time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type BackupConfig struct {
	PgDumpPath string
	Timeout    time.Duration
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.RawDSN != "" {
		return d.RawDSN
	}
	if d.Driver == "sqlite" {
		return d.DBName
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	if strings.HasPrefix(d.RawDSN, "postgres://") || strings.HasPrefix(d.RawDSN, "postgresql://") {
		return d.RawDSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			RawDSN:   getEnv("DATABASE_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "ppat"),
			Password: getEnv("DB_PASSWORD", "ppat123"),
			DBName:   getEnv("DB_NAME", "ppat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
			Seed:       getEnvBool("DB_SEED", true),
		},
		Storage: StorageConfig{
			Root:           getEnv("STORAGE_ROOT", "storage"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
			MaxProofBytes:  int64(getEnvInt("MAX_PROOF_BYTES", 2<<20)),
			MaxImageWidth:  getEnvInt("MAX_IMAGE_WIDTH", 1600),
		},
		Billing: BillingConfig{
			MinPaymentAmount: int64(getEnvInt("MIN_PAYMENT_AMOUNT", 1000)),
		},
		Auth: AuthConfig{
			SessionSecret: getEnv("SESSION_SECRET", ""),
			SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*14)) * time.Hour,
			ProfileTTL:    time.Duration(getEnvInt("PROFILE_CACHE_SECONDS", 300)) * time.Second,
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			AdminName:     getEnv("ADMIN_NAME", "Super Admin"),
		},
		Backup: BackupConfig{
			PgDumpPath: getEnv("PG_DUMP", "pg_dump"),
			Timeout:    time.Duration(getEnvInt("BACKUP_TIMEOUT_SECONDS", 300)) * time.Second,
		},
		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return defaultValue
	}
	return lvl
}
