// Package main is the PPAT back-office server and its maintenance commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/backup"
	"github.com/diewo77/go-ppat/internal/config"
	"github.com/diewo77/go-ppat/internal/db"
	"github.com/diewo77/go-ppat/internal/metrics"
	"github.com/diewo77/go-ppat/internal/policy"
	"github.com/diewo77/go-ppat/internal/services"
	"github.com/diewo77/go-ppat/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	Version = "0.1.0"
	appName = "server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfg *config.Config

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "PPAT back-office server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load environment variables from .env file
			_ = godotenv.Load()
			cfg = config.Load()
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
		},
	}

	cmd.AddCommand(
		serveCmd(&cfg),
		migrateCmd(&cfg),
		seedCmd(&cfg),
		backupCmd(&cfg),
		versionCmd(),
	)
	return cmd
}

func serveCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

func migrateCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			conn, err := db.Open(cmd.Context(), c.Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(conn, true, c.Database.URL()); err != nil {
				return err
			}
			slog.Info("migrations completed")
			return nil
		},
	}
}

func seedCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert reference data and the bootstrap admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			conn, err := db.Open(cmd.Context(), c.Database)
			if err != nil {
				return err
			}
			if err := db.Seed(conn, seedOptions(c)); err != nil {
				return err
			}
			slog.Info("seeding completed")
			return nil
		},
	}
}

func backupCmd(cfg **config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a pg_dump of the database to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = backup.FileName(time.Now())
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			n, err := dumper(*cfg).Stream(cmd.Context(), f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(out)
				return err
			}
			slog.Info("backup written", "file", out, "bytes", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default ppat-backup-<timestamp>.dump)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	}
}

func seedOptions(c *config.Config) db.SeedOptions {
	return db.SeedOptions{
		AdminEmail:    c.Auth.AdminEmail,
		AdminPassword: c.Auth.AdminPassword,
		AdminName:     c.Auth.AdminName,
		CompanyName:   services.DefaultCompanyName,
	}
}

func dumper(c *config.Config) *backup.Dumper {
	return &backup.Dumper{
		PgDump:  c.Backup.PgDumpPath,
		URL:     c.Database.URL(),
		Timeout: c.Backup.Timeout,
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	// SQL migrations only when enabled; AutoMigrate otherwise
	if err := db.Migrate(conn, cfg.App.Migrations, cfg.Database.URL()); err != nil {
		return err
	}
	if cfg.App.Seed {
		if err := db.Seed(conn, seedOptions(cfg)); err != nil {
			return err
		}
	}

	if cfg.Auth.SessionSecret == "" && !cfg.App.Dev {
		return errors.New("SESSION_SECRET is required outside development")
	}
	auth.Configure(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)

	m := metrics.New()
	routerCfg := policy.NewRouterConfig(conn, policy.RouterOptions{
		Store:   storage.NewLocal(cfg.Storage.Root),
		Metrics: m,
		Limits: services.Limits{
			MinPaymentAmount: cfg.Billing.MinPaymentAmount,
			MaxUploadBytes:   cfg.Storage.MaxUploadBytes,
			MaxProofBytes:    cfg.Storage.MaxProofBytes,
			MaxImageWidth:    cfg.Storage.MaxImageWidth,
		},
		Dumper:     dumper(cfg),
		ProfileTTL: cfg.Auth.ProfileTTL,
	})
	// A session for a deleted or deactivated user is rejected
	auth.SetUserVerifier(routerCfg.UserService.Active)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(NewApp(conn, routerCfg, m)),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "dev", cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	closeDB(conn)
	slog.Info("server stopped gracefully")
	return nil
}

func closeDB(conn *gorm.DB) {
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "status", sw.status, "duration", time.Since(start))
	})
}
