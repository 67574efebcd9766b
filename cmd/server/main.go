package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"werewolf/internal/app"
	"werewolf/internal/config"
	"werewolf/internal/store"
	httpTransport "werewolf/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	settings, err := cfg.Game.Settings()
	if err != nil {
		logger.Error("invalid game configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting werewolf game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"minPlayers", settings.Catalog.MinPlayers,
		"roles", cfg.Game.Roles,
	)

	// Optional archive of finished games
	var (
		recorder app.Recorder
		history  httpTransport.GameHistory
	)
	if cfg.Archive.Path != "" {
		archive, err := store.Open(cfg.Archive.Path)
		if err != nil {
			logger.Error("failed to open archive", "path", cfg.Archive.Path, "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		recorder, history = archive, archive
		logger.Info("game archive enabled", "path", cfg.Archive.Path)
	}

	// Create game hub
	hub := app.NewGameHub(settings, recorder, logger)
	defer hub.Close()

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, history, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
