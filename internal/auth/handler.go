package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatehouse/gatehouse/internal/access"
	"github.com/gatehouse/gatehouse/internal/platform/httpx"
	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	validator    *validator.Validate
	cookieName   string
	cookieSecure bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cookieName string, cookieSecure bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:       logger,
		service:      service,
		validator:    validator.New(),
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/users", h.handleRegister)
	r.Post("/reset_password", h.handleResetRequest)
	r.Put("/reset_password", h.handleResetConsume)
	r.Post("/api/v1/auth_session/login", h.handleLogin)
	r.Delete("/api/v1/auth_session/logout", h.handleLogout)
	r.Get("/api/v1/users/me", h.handleMe)
}

type userPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func toPayload(user *users.User) userPayload {
	return userPayload{ID: user.ID, Email: user.Email}
}

type registerForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "")
		return
	}
	form := registerForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "email and password are required")
		return
	}

	user, err := h.service.Register(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"email":   user.Email,
		"message": "user created",
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "")
		return
	}
	email := r.PostFormValue("email")
	pass := r.PostFormValue("password")
	if email == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "email missing")
		return
	}
	if pass == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "password missing")
		return
	}

	sessionID, err := h.service.Login(r.Context(), email, pass)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.IdentityForSession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("resolve freshly issued session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	h.setSessionCookie(w, sessionID)
	httpx.JSON(w, http.StatusOK, toPayload(user))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := access.SessionCookie(r, h.cookieName)
	if sessionID == "" || !h.service.DestroySession(r.Context(), sessionID) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		return
	}
	h.clearSessionCookie(w)
	httpx.JSON(w, http.StatusOK, map[string]any{})
}

func (h *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "")
		return
	}
	email := r.PostFormValue("email")
	token, err := h.service.RequestPasswordReset(r.Context(), email)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"email":       email,
		"reset_token": token,
	})
}

func (h *Handler) handleResetConsume(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "")
		return
	}
	email := r.PostFormValue("email")
	token := r.PostFormValue("reset_token")
	newPassword := r.PostFormValue("new_password")

	if err := h.service.ConsumePasswordReset(r.Context(), token, newPassword); err != nil {
		if errors.Is(err, shared.ErrInvalidResetToken) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"email":   email,
		"message": "Password updated",
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := access.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(user))
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	cookie := &http.Cookie{
		Name:     h.cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
	if d := h.service.Sessions().Duration(); d > 0 {
		cookie.Expires = time.Now().Add(d)
	}
	http.SetCookie(w, cookie)
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
