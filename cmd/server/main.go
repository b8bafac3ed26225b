// Package main is the entry point for the recipe API server.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (.env, recipe-api.toml, environment overrides)
//  2. Create the logger and the data/media directories
//  3. Start the application
//
// All actual logic lives in internal/server and the packages it wires.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/recipe-api/internal/config"
	"github.com/sakif/recipe-api/internal/server"
)

func main() {
	// A .env file is optional; real environment variables always win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, path, exists, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	if exists {
		logger.Info("configuration loaded", slog.String("path", path))
	} else {
		logger.Info("no configuration file found, using defaults and environment", slog.String("path", path))
	}

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create data directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
