package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/observability"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger   *slog.Logger
	Config   *Config
	Sessions *session.Manager
	Errors   *httpx.ErrorWriter
	Metrics  *observability.Metrics
}

// MiddlewareStack installs the wall middleware chain. Order matters: the
// recoverer must wrap everything that can panic, the session middleware
// must run before the CSRF guard so the cookie exists, and the guard
// must run before any handler that mutates state.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		FeaturePolicy:         "none",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		recoverer(cfg.Logger, cfg.Errors),
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, func(next http.Handler) http.Handler {
			return cfg.Metrics.Middleware(next)
		})
	}
	middlewares = append(middlewares,
		cfg.Sessions.Middleware(cfg.Errors),
		cfg.Sessions.CSRFGuard(cfg.Errors),
	)
	return middlewares
}

// recoverer converts a handler panic into a masked 500. The stack is
// captured for debug responses and the event surfaces in the security
// log; the caller never sees the panic value in production.
func recoverer(logger *slog.Logger, errors *httpx.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := string(debug.Stack())
					logging.SecurityEvent(logger, logging.SeverityCritical, "handler_panic",
						"panic", fmt.Sprint(rec), "path", r.URL.Path)
					errors.Respond(w, r, shared.Internal(fmt.Errorf("panic: %v", rec)).WithStack(stack))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
