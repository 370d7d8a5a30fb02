package handlers

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/portal-be/internal/api/respond"
	"github.com/isdelr/portal-be/internal/auth"
	"github.com/isdelr/portal-be/internal/models"
	"github.com/isdelr/portal-be/internal/request"
	"github.com/isdelr/portal-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	users         services.UserServiceProvider
	activity      services.ActivityServiceProvider
	tokens        services.TokenServiceProvider
	issuer        *auth.Issuer
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies marks the session
// cookie Secure, for deployments behind HTTPS.
func NewUserHandler(users services.UserServiceProvider, activity services.ActivityServiceProvider, tokens services.TokenServiceProvider, issuer *auth.Issuer, secureCookies bool) *UserHandler {
	return &UserHandler{
		users:         users,
		activity:      activity,
		tokens:        tokens,
		issuer:        issuer,
		secureCookies: secureCookies,
	}
}

// Routes builds the user API. requireAuth gates account routes and
// loginLimit throttles credential checks.
func (h *UserHandler) Routes(requireAuth, loginLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodPost, "/register", respond.Handler(h.Register))
	r.With(loginLimit).Method(http.MethodPost, "/login", respond.Handler(h.Login))

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Method(http.MethodPost, "/logout", respond.Handler(h.Logout))
		r.Method(http.MethodGet, "/me", respond.Handler(h.GetMe))
		r.Method(http.MethodPut, "/me", respond.Handler(h.UpdateMe))
		r.Method(http.MethodPut, "/me/password", respond.Handler(h.ChangePassword))
		r.Method(http.MethodDelete, "/me", respond.Handler(h.DeleteMe))
	})
	return r
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var payload RegisterPayload
	if err := request.Bind(r, &payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return nil
	}

	user, err := h.users.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	switch {
	case errors.Is(err, services.ErrInvalidUserInput):
		respond.Fail(w, http.StatusBadRequest, "Usuario, email y contraseña son obligatorios")
		return nil
	case errors.Is(err, services.ErrDuplicateUser):
		respond.Fail(w, http.StatusConflict, "El usuario o email ya está registrado")
		return nil
	case err != nil:
		return fmt.Errorf("register %s: %w", payload.Email, err)
	}

	h.record(r, user.ID, models.ActivityRegister, "Cuenta creada")

	respond.JSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user,
	})
	return nil
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var payload AuthPayload
	if err := request.Bind(r, &payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return nil
	}

	user, err := h.users.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respond.Fail(w, http.StatusUnauthorized, "Credenciales inválidas")
		return nil
	}
	if err != nil {
		return fmt.Errorf("authenticate %s: %w", payload.Email, err)
	}

	token, claims, err := h.issuer.GenerateJWT(user)
	if err != nil {
		return fmt.Errorf("generate token for %s: %w", user.ID, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Expires:  claims.ExpiresAt.Time,
		HttpOnly: true,
		Secure:   h.secureCookies,
		// Lax keeps the cookie on top-level navigation to /dashboard.
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	h.record(r, user.ID, models.ActivityLogin, "Inicio de sesión")

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
	return nil
}

// Logout revokes the current token and clears the cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}
	if err := h.revoke(r, claims); err != nil {
		return err
	}

	h.clearCookie(w)
	h.record(r, claims.UserID, models.ActivityLogout, "Cierre de sesión")

	respond.JSON(w, http.StatusOK, respond.Envelope{Success: true})
	return nil
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) error {
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

	respond.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
	return nil
}

// UpdateMe handles updating the current user's profile information.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}

	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := request.Bind(r, &payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return nil
	}

	user, err := h.users.UpdateUser(r.Context(), claims.UserID, payload.Username, payload.Email)
	switch {
	case errors.Is(err, services.ErrInvalidUserInput):
		respond.Fail(w, http.StatusBadRequest, "Usuario y email son obligatorios")
		return nil
	case errors.Is(err, services.ErrDuplicateUser):
		respond.Fail(w, http.StatusConflict, "El usuario o email ya está registrado")
		return nil
	case errors.Is(err, services.ErrUserNotFound):
		respond.Fail(w, http.StatusNotFound, "Usuario no encontrado")
		return nil
	case err != nil:
		return fmt.Errorf("update user %s: %w", claims.UserID, err)
	}

	h.record(r, user.ID, models.ActivityUpdate, "Perfil actualizado")

	respond.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
	return nil
}

// ChangePassword handles changing the current user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := request.Bind(r, &payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Cuerpo de la petición inválido")
		return nil
	}

	err = h.users.UpdatePassword(r.Context(), claims.UserID, payload.CurrentPassword, payload.NewPassword)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		respond.Fail(w, http.StatusBadRequest, "La contraseña actual es incorrecta")
		return nil
	case errors.Is(err, services.ErrInvalidUserInput):
		respond.Fail(w, http.StatusBadRequest, "La nueva contraseña es obligatoria")
		return nil
	case errors.Is(err, services.ErrUserNotFound):
		respond.Fail(w, http.StatusNotFound, "Usuario no encontrado")
		return nil
	case err != nil:
		return fmt.Errorf("change password for %s: %w", claims.UserID, err)
	}

	h.record(r, claims.UserID, models.ActivityPasswordChange, "Contraseña cambiada")

	respond.JSON(w, http.StatusOK, respond.Envelope{Success: true, Msg: "Contraseña actualizada"})
	return nil
}

// DeleteMe handles the permanent deletion of the current account.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) error {
	claims, err := claimsFrom(r)
	if err != nil {
		return err
	}

	// Revoke first: a token must never outlive its account.
	if err := h.revoke(r, claims); err != nil {
		return err
	}
	err = h.users.DeleteUser(r.Context(), claims.UserID)
	if errors.Is(err, services.ErrUserNotFound) {
		respond.Fail(w, http.StatusNotFound, "Usuario no encontrado")
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete user %s: %w", claims.UserID, err)
	}

	h.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *UserHandler) revoke(r *http.Request, claims *auth.Claims) error {
	expiresAt := time.Now().Add(h.issuer.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.tokens.RevokeToken(r.Context(), claims.ID, expiresAt); err != nil {
		return fmt.Errorf("revoke token %s: %w", claims.ID, err)
	}
	return nil
}

func (h *UserHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// record stores an activity entry. The action it describes already
// succeeded, so a failure here is only logged.
func (h *UserHandler) record(r *http.Request, userID, activityType, message string) {
	if _, err := h.activity.RecordActivity(r.Context(), userID, activityType, message, remoteIP(r)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", activityType).Msg("Failed to record activity")
	}
}

func claimsFrom(r *http.Request) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, errors.New("user claims missing from request context")
	}
	return claims, nil
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
