// Package main is the entry point for the student dashboard server.
//
// MAIN PACKAGE IN GO:
// main stays minimal. Its job is to:
// 1. Read configuration (.env, optional YAML file, environment)
// 2. Create the logger
// 3. Build and start the server
//
// All actual logic lives in internal/ packages.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// Each executable gets its own directory with its own main.go.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/student-dashboard/internal/config"
	"github.com/sakif/student-dashboard/internal/logger"
	"github.com/sakif/student-dashboard/internal/server"
)

func main() {
	// === 1. LOAD .env ===
	// A missing .env is normal in production, where the environment is set
	// by the orchestrator. Variables already set are never overwritten.
	envErr := godotenv.Load()

	// === 2. READ CONFIGURATION ===
	// Precedence: defaults < YAML file (CONFIG_PATH) < environment.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SET UP LOGGING ===
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn("could not read .env", slog.String("error", envErr.Error()))
	}

	// SQLite needs its directory to exist before the first open.
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != ":memory:" {
		dir := filepath.Dir(cfg.Database.DSN)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
