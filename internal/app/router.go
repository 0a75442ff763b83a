package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/notifications"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/observability"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/posts"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/users"
	"github.com/jomcas/ccit-wall-2026-sub001/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	Sessions             *session.Manager
	Errors               *httpx.ErrorWriter
	Auth                 auth.Middleware
	UsersHandler         *users.Handler
	PostsHandler         *posts.Handler
	NotificationsHandler *notifications.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with wall defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
		Errors:   params.Errors,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(httprate.Limit(60, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(RateLimitHandler(params.Errors, time.Minute)),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		params.Errors.Respond(w, r, shared.NotFound("Resource not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		params.Errors.Respond(w, r, shared.NotFound("Resource not found"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.UsersHandler.MountAuthRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	if params.PostsHandler != nil {
		r.Route("/posts", params.PostsHandler.MountRoutes)
	}
	if params.NotificationsHandler != nil {
		r.Route("/notifications", params.NotificationsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Auth.Authenticate)
			r.Use(params.Auth.RequireRoles(auth.RoleAdmin))
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// RateLimitHandler adapts httprate refusals into the error taxonomy so
// 429s carry the envelope and Retry-After like every other error.
func RateLimitHandler(errors *httpx.ErrorWriter, window time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errors.Respond(w, r, shared.RateLimited("Too many requests", window).WithCode("RATE_LIMITED"))
	}
}

// CredentialRateLimit builds the tighter limiter applied to login,
// registration, and password-reset endpoints.
func CredentialRateLimit(cfg *Config, errors *httpx.ErrorWriter) func(http.Handler) http.Handler {
	limit := 10
	window := time.Minute
	if cfg != nil {
		if cfg.RateLoginLimit > 0 {
			limit = cfg.RateLoginLimit
		}
		if cfg.RateLoginWindow > 0 {
			window = cfg.RateLoginWindow
		}
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(RateLimitHandler(errors, window)),
	)
}
