// Package main is the entry point for the Firefly API server. It reads
// configuration, builds the logger and the storage backend, and hands
// everything to internal/server. All real logic lives in the internal
// packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aaronwittchen/Firefly/internal/config"
	"github.com/aaronwittchen/Firefly/internal/middleware"
	"github.com/aaronwittchen/Firefly/internal/repository"
	"github.com/aaronwittchen/Firefly/internal/repository/postgres"
	"github.com/aaronwittchen/Firefly/internal/repository/sqlite"
	"github.com/aaronwittchen/Firefly/internal/server"
)

func main() {
	// CONFIG_FILE points at an optional TOML file; env vars win over it.
	// Missing required settings (SECRET_KEY, GitHub credentials,
	// DATABASE_URL) abort here, before anything listens.
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Logging.Level),
	}))

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	middleware.RegisterMetrics()

	srv, err := server.New(cfg, logger, store)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way
	// out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openStore picks the backend from the database URL: postgres:// selects
// PostgreSQL (provisioning the database if missing), anything else is a
// SQLite path.
func openStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.IsPostgres() {
		logger.Info("using postgres backend")
		return postgres.New(cfg.Database.URL)
	}

	path := cfg.SQLitePath()
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	logger.Info("using sqlite backend", slog.String("path", path))
	return sqlite.New(path)
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
