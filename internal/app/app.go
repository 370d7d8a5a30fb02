// Package app builds the application value once at start-up and runs it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/isdelr/portal-be/internal/api"
	"github.com/isdelr/portal-be/internal/auth"
	"github.com/isdelr/portal-be/internal/config"
	"github.com/isdelr/portal-be/internal/database"
	"github.com/isdelr/portal-be/internal/monitoring"
	"github.com/isdelr/portal-be/internal/services"
	"github.com/isdelr/portal-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// App owns every long-lived resource of the process.
type App struct {
	cfg    *config.Config
	db     *sql.DB
	hub    *websocket.Hub
	pruner *monitoring.TokenPruner
	router http.Handler
}

// New connects to the database, applies migrations and wires the router.
// It does not return until the database is usable, so no request can be
// served against a connection that is not ready.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply database migrations: %w", err)
	}
	log.Info().Str("path", cfg.DatabasePath).Msg("Database ready")

	hub := websocket.NewHub()

	userService := services.NewUserService(db)
	activityService := services.NewActivityService(db, hub)
	tokenService := services.NewTokenService(db)
	systemService := services.NewSystemService()

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL, tokenService)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize token issuer: %w", err)
	}

	pruner, err := monitoring.NewTokenPruner(tokenService, cfg.TokenPruneSchedule)
	if err != nil {
		db.Close()
		return nil, err
	}

	router, err := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Issuer:   issuer,
		Users:    userService,
		Activity: activityService,
		Tokens:   tokenService,
		System:   systemService,
		Hub:      hub,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	return &App{
		cfg:    cfg,
		db:     db,
		hub:    hub,
		pruner: pruner,
		router: router,
	}, nil
}

// Handler is the fully composed HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Listen binds the configured port.
func (a *App) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.ServerPort))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", a.cfg.ServerPort, err)
	}
	return ln, nil
}

// Run binds the port and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := a.Listen()
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve starts the background workers and serves on ln until ctx is
// cancelled, then shuts down gracefully within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	go a.hub.Run()
	a.pruner.Run()
	defer func() {
		a.pruner.Stop()
		a.hub.Stop()
	}()

	srv := &http.Server{Handler: a.router}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msgf("Servidor corriendo en http://localhost:%d", listenPort(ln))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exiting")
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

func listenPort(ln net.Listener) int {
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}
