// Package main is the entry point for the skillbridge auth server.
// main stays minimal: load config, build the logger, start the server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mhasan/skillbridge/internal/config"
	"github.com/mhasan/skillbridge/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set — Google sign-in will reject every credential")
	}

	// Ensure the database directory exists before sqlite tries to create
	// the file.
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
