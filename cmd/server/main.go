// Package main is the entry point for the social network server.
//
// main stays small: load configuration, build the logger, make sure the
// database directory exists, then hand over to internal/server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/qius-alx/social-network/internal/config"
	"github.com/qius-alx/social-network/internal/logger"
	"github.com/qius-alx/social-network/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	// === 1. ENVIRONMENT ===
	// A .env file is optional; variables already set in the process win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	// === 2. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// === 3. LOGGING ===
	log, flush, err := logger.New(logger.Options{
		Format:    cfg.Logging.Format,
		Level:     cfg.Logging.Level,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer flush()
	slog.SetDefault(log)

	// === 4. DATABASE DIRECTORY ===
	// os.MkdirAll is `mkdir -p`; an in-memory database needs nothing.
	if cfg.Database.Path != ":memory:" {
		dir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	// === 5. SERVE ===
	ctx := context.Background()
	srv, err := server.New(ctx, *cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(ctx); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
