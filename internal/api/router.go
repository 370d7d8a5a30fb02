package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/portal-be/internal/api/handlers"
	"github.com/isdelr/portal-be/internal/api/respond"
	"github.com/isdelr/portal-be/internal/auth"
	"github.com/isdelr/portal-be/internal/config"
	"github.com/isdelr/portal-be/internal/request"
	"github.com/isdelr/portal-be/internal/services"
	"github.com/isdelr/portal-be/internal/websocket"
)

// Stage names of the request pipeline.
const (
	StageRequestID  = "request-id"
	StageRealIP     = "real-ip"
	StageRequestLog = "request-log"
	StageRecoverer  = "recoverer"
	StageCORS       = "cors"
	StageCookies    = "cookies"
	StageBody       = "body"
	StageJWT        = "jwt"
	StageLoginLimit = "login-limit"
)

const (
	registerPage  = "registro.html"
	dashboardPage = "dashboard.html"
)

// Dependencies are the collaborators the router wires into routes.
type Dependencies struct {
	Config   *config.Config
	Issuer   *auth.Issuer
	Users    services.UserServiceProvider
	Activity services.ActivityServiceProvider
	Tokens   services.TokenServiceProvider
	System   services.SystemServiceProvider
	Hub      *websocket.Hub
}

// GlobalStages returns the stages every request passes through, in order.
func GlobalStages(cfg *config.Config) []Stage {
	return []Stage{
		{Name: StageRequestID, Handler: middleware.RequestID},
		{Name: StageRealIP, Handler: middleware.RealIP},
		{Name: StageRequestLog, Requires: []string{StageRequestID}, Handler: requestLogger},
		// Inside the logger so recovered panics are logged with their 500.
		{Name: StageRecoverer, Requires: []string{StageRequestLog}, Handler: respond.Recoverer},
		{Name: StageCORS, Handler: cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.AllowedOrigin},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300,
		})},
		{Name: StageCookies, Handler: request.Cookies},
		// Parse failures go to the terminal responder like any other error.
		{Name: StageBody, Requires: []string{StageRecoverer}, Handler: request.Body(request.DefaultBodyLimit, respond.InternalError)},
	}
}

// NewRouter composes the application: global pipeline, static trees, API
// routers and pages, in that order.
func NewRouter(deps Dependencies) (*chi.Mux, error) {
	cfg := deps.Config

	global, err := NewPipeline(GlobalStages(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("global pipeline: %w", err)
	}
	authed, err := global.Extend(Stage{Name: StageJWT, Requires: []string{StageCookies}, Handler: deps.Issuer.Middleware()})
	if err != nil {
		return nil, fmt.Errorf("jwt gate: %w", err)
	}
	limited, err := global.Extend(Stage{
		Name:     StageLoginLimit,
		Requires: []string{StageRealIP, StageBody},
		Handler:  RateLimitByIP(cfg.LoginRatePerMinute, cfg.LoginBurst),
	})
	if err != nil {
		return nil, fmt.Errorf("login limiter: %w", err)
	}
	requireAuth := authed.Then
	throttleLogin := limited.Then

	r := chi.NewRouter()
	r.Use(global.Middlewares()...)
	// Unmatched methods are unknown routes, here and in mounted routers.
	r.MethodNotAllowed(http.NotFound)

	// Public files, no authentication
	public := staticHandler(cfg.PublicDir)
	r.Method(http.MethodGet, "/*", public)
	r.Method(http.MethodHead, "/*", public)

	// Private files, only after the token checks out. The bare /private
	// path is gated too.
	r.Route("/private", func(r chi.Router) {
		r.Use(authed.Middlewares()...)
		private := http.StripPrefix("/private", staticHandler(cfg.PrivateDir))
		r.Method(http.MethodGet, "/*", private)
		r.Method(http.MethodHead, "/*", private)
	})

	// API routers
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, cfg.AllowedOrigin)
	userHandler := handlers.NewUserHandler(deps.Users, deps.Activity, deps.Tokens, deps.Issuer, cfg.IsProduction())
	dashboardHandler := handlers.NewDashboardHandler(deps.Users, deps.Activity, deps.System, wsHandler)
	r.Mount("/api/user", userHandler.Routes(requireAuth, throttleLogin))
	r.Mount("/api/user/dashboard", dashboardHandler.Routes(requireAuth))

	// Pages
	r.Method(http.MethodGet, "/register", pageHandler(filepath.Join(cfg.PublicDir, registerPage)))
	r.With(authed.Middlewares()...).Method(http.MethodGet, "/dashboard", pageHandler(filepath.Join(cfg.PrivateDir, dashboardPage)))

	return r, nil
}
