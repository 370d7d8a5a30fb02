package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/portal-be/internal/api/respond"
	"github.com/isdelr/portal-be/internal/models"
	"github.com/isdelr/portal-be/internal/services"
)

const summaryActivityLimit = 10

// DashboardHandler serves the data behind the user's dashboard.
type DashboardHandler struct {
	users    services.UserServiceProvider
	activity services.ActivityServiceProvider
	system   services.SystemServiceProvider
	ws       *WebSocketHandler
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(users services.UserServiceProvider, activity services.ActivityServiceProvider, system services.SystemServiceProvider, ws *WebSocketHandler) *DashboardHandler {
	return &DashboardHandler{users: users, activity: activity, system: system, ws: ws}
}

// Routes builds the dashboard API; every route sits behind requireAuth.
func (h *DashboardHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth)
	r.Method(http.MethodGet, "/", respond.Handler(h.Summary))
	r.Method(http.MethodGet, "/activity", respond.Handler(h.Activity))
	r.Method(http.MethodGet, "/status", respond.Handler(h.Status))
	r.Get("/ws", h.ws.Serve)
	return r
}

// Summary returns the user, their latest activity and the host status.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if errors.Is(err, services.ErrUserNotFound) {
		respond.Fail(w, http.StatusNotFound, "Usuario no encontrado")
		return nil
	}
	if err != nil {
		return err
	}

	activity, err := h.activity.GetRecentActivity(r.Context(), claims.UserID, summaryActivityLimit)
	if err != nil {
		return fmt.Errorf("load activity for %s: %w", claims.UserID, err)
	}

	status, err := h.system.GetHostStatus(r.Context())
	if err != nil {
		return fmt.Errorf("read host status: %w", err)
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"dashboard": models.DashboardSummary{
			User:     user,
			Activity: activity,
			Status:   status,
		},
	})
	return nil
}

// Activity handles the request to get the user's recent activity.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultActivityLimit
	}

	activity, err := h.activity.GetRecentActivity(r.Context(), claims.UserID, limit)
	if err != nil {
		return fmt.Errorf("load activity for %s: %w", claims.UserID, err)
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "activity": activity})
	return nil
}

// Status handles the request for the host status.
func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) error {
	status, err := h.system.GetHostStatus(r.Context())
	if err != nil {
		return fmt.Errorf("read host status: %w", err)
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": status})
	return nil
}
