package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/isdelr/portal-be/internal/app"
	"github.com/isdelr/portal-be/internal/config"
	"github.com/isdelr/portal-be/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database, services and router; blocks until the database is ready
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		application.Close()
		os.Exit(1)
	}

	if err := application.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
