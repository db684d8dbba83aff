package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	AuthHandler *auth.Handler
	Gate        func(http.Handler) http.Handler
	Metrics     *observability.Metrics
}

// NewRouter constructs the chi.Router with Gatehouse defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
		Gate:    params.Gate,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "Bienvenue"})
	})

	r.Get("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	// Probe endpoints mirroring the gate's rejection responses; useful for
	// exercising client error handling.
	r.Get("/api/v1/unauthorized", func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	})
	r.Get("/api/v1/forbidden", func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})

	return r
}
