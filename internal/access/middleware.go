package access

import (
	"log/slog"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/platform/httpx"
)

// FailureRecorder counts authentication rejections. observability.Metrics
// satisfies it; a nil recorder disables counting.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// GateConfig collects the dependencies of the gating middleware.
type GateConfig struct {
	Strategy   Strategy
	Excluded   []string
	CookieName string
	Logger     *slog.Logger
	Recorder   FailureRecorder
}

// Middleware gates every request behind the policy evaluator. Excluded
// paths pass through unauthenticated. Everything else must carry some
// credential, an Authorization header or the session cookie (401 otherwise),
// and the strategy must resolve it to a user (403 otherwise); the resolved
// identity rides the request context from there on.
func Middleware(cfg GateConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !RequiresAuth(r.URL.Path, cfg.Excluded) {
				next.ServeHTTP(w, r)
				return
			}

			if AuthorizationHeader(r) == "" && SessionCookie(r, cfg.CookieName) == "" {
				if cfg.Recorder != nil {
					cfg.Recorder.RecordAuthFailure("unauthenticated")
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}

			user, err := cfg.Strategy.ResolveIdentity(r)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("identity resolution failed", slog.String("path", r.URL.Path))
				}
				if cfg.Recorder != nil {
					cfg.Recorder.RecordAuthFailure("forbidden")
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}
