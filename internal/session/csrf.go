package session

import (
	"net/http"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/crypto"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Error codes clients can branch on.
const (
	CodeSessionTimeout = "SESSION_TIMEOUT"
	CodeCSRFMissing    = "CSRF_TOKEN_MISSING"
	CodeCSRFInvalid    = "CSRF_TOKEN_INVALID"
)

// CSRFGuard enforces the double-submit check on unsafe methods: the
// readable cookie and the request header must carry the same token.
// The token is not bound to the session identity; a subdomain attacker
// who can plant cookies defeats it. Known limitation, kept as designed.
func (m *Manager) CSRFGuard(errors *httpx.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get(m.cfg.CSRFHeader)
			cookie, err := r.Cookie(m.cfg.CSRFCookie)
			if err != nil || cookie.Value == "" || header == "" {
				logging.SecurityEvent(m.logger, logging.SeverityMedium, "csrf_token_missing", "method", r.Method, "path", r.URL.Path)
				errors.Respond(w, r, shared.Forbidden("CSRF token missing").WithCode(CodeCSRFMissing))
				return
			}
			if !crypto.ConstantTimeEqual(cookie.Value, header) {
				logging.SecurityEvent(m.logger, logging.SeverityMedium, "csrf_token_mismatch", "method", r.Method, "path", r.URL.Path)
				errors.Respond(w, r, shared.Forbidden("CSRF token invalid").WithCode(CodeCSRFInvalid))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
