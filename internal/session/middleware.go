package session

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Middleware tracks inactivity for session-bearing requests, suppresses
// caching on them, and makes sure a CSRF cookie exists for the client to
// mirror. Requests without a session id pass through untouched.
func (m *Manager) Middleware(errors *httpx.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := m.SessionID(r); ok {
				result, err := m.store.Touch(r.Context(), id, time.Now(), m.cfg.IdleTimeout)
				if err != nil {
					errors.Respond(w, r, shared.Internal(err))
					return
				}
				if result == TouchExpired {
					m.Clear(w)
					logging.AuthEvent(m.logger, "session_timeout", "path", r.URL.Path)
					errors.Respond(w, r, shared.Authentication("Session expired").WithCode(CodeSessionTimeout))
					return
				}
				httpx.NoStore(w)
				r = r.WithContext(ContextWithSessionID(r.Context(), id))
			}
			m.ensureCSRF(w, r)
			if m.cfg.SweepChance > 0 && rand.Float64() < m.cfg.SweepChance {
				go m.sweep()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Manager) ensureCSRF(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(m.cfg.CSRFCookie); err == nil && c.Value != "" {
		return
	}
	if _, err := m.IssueCSRF(w); err != nil {
		m.logger.Error("issue csrf cookie", "error", err.Error())
	}
}

func (m *Manager) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	removed, err := m.store.Sweep(ctx, time.Now(), m.cfg.IdleTimeout)
	if err != nil {
		m.logger.Warn("session sweep failed", "error", err.Error())
		return
	}
	if removed > 0 {
		m.logger.Debug("session sweep", "removed", removed)
	}
}
