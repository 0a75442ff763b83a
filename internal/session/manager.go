package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/crypto"
)

// Default cookie and timeout settings.
const (
	DefaultCookieName  = "sessionId"
	DefaultCSRFCookie  = "csrfToken"
	DefaultCSRFHeader  = "x-csrf-token"
	DefaultMaxAge      = 30 * time.Minute
	DefaultIdleTimeout = 30 * time.Minute
	DefaultSweepChance = 0.01

	headerSessionID = "X-Session-Id"
	csrfTokenLength = 64
)

// Config controls cookie attributes and inactivity behavior. Zero values
// fall back to the defaults above.
type Config struct {
	CookieName  string
	CSRFCookie  string
	CSRFHeader  string
	MaxAge      time.Duration
	IdleTimeout time.Duration
	Secure      bool
	SameSite    http.SameSite
	Domain      string
	SweepChance float64
}

// Manager issues, refreshes, and clears session cookies, and runs the
// CSRF double-submit check. Activity lives behind ActivityStore so a
// clustered deployment can swap the map for Redis untouched.
type Manager struct {
	cfg    Config
	store  ActivityStore
	logger *slog.Logger
}

// NewManager applies defaults and wires the store.
func NewManager(cfg Config, store ActivityStore, logger *slog.Logger) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = DefaultCSRFCookie
	}
	if cfg.CSRFHeader == "" {
		cfg.CSRFHeader = DefaultCSRFHeader
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteStrictMode
	}
	if cfg.SweepChance == 0 {
		cfg.SweepChance = DefaultSweepChance
	}
	return &Manager{cfg: cfg, store: store, logger: logger}
}

// CookieName exposes the configured session cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// CSRFHeader exposes the configured CSRF header name.
func (m *Manager) CSRFHeader() string { return m.cfg.CSRFHeader }

// IdleTimeout exposes the inactivity window.
func (m *Manager) IdleTimeout() time.Duration { return m.cfg.IdleTimeout }

// Issue mints a high-entropy session id, records it as active, and sets
// the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter) (string, error) {
	id, err := crypto.UUID()
	if err != nil {
		return "", fmt.Errorf("session: issue id: %w", err)
	}
	if _, err := m.store.Touch(ctx, id, time.Now(), m.cfg.IdleTimeout); err != nil {
		return "", err
	}
	http.SetCookie(w, m.sessionCookie(id, int(m.cfg.MaxAge.Seconds())))
	return id, nil
}

// Regenerate replaces the caller's session with a brand-new id. Invoked
// right after privilege changes (login) to defeat fixation. The old id
// is not deleted here; unused entries age out via the inactivity
// timeout.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter) (string, error) {
	return m.Issue(ctx, w)
}

// Clear expires both cookies. Attributes must match issuance exactly or
// most cookie jars silently keep the old cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.sessionCookie("", -1))
	http.SetCookie(w, m.csrfCookie("", -1))
}

// Destroy clears the cookies and drops the server-side activity record.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	m.Clear(w)
	return m.store.Delete(ctx, sessionID)
}

// SessionID extracts the session identifier from the cookie or, failing
// that, the X-Session-Id header.
func (m *Manager) SessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	if v := r.Header.Get(headerSessionID); v != "" {
		return v, true
	}
	return "", false
}

// IssueCSRF mints a fresh CSRF token and sets the readable cookie for
// the client to mirror into the request header.
func (m *Manager) IssueCSRF(w http.ResponseWriter) (string, error) {
	token, err := crypto.Token(csrfTokenLength, crypto.Hex)
	if err != nil {
		return "", fmt.Errorf("session: issue csrf token: %w", err)
	}
	http.SetCookie(w, m.csrfCookie(token, int(m.cfg.MaxAge.Seconds())))
	return token, nil
}

func (m *Manager) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: m.cfg.SameSite,
	}
}

// csrfCookie is deliberately not HttpOnly: client script must read it to
// echo the value back in the header.
func (m *Manager) csrfCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CSRFCookie,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   m.cfg.Secure,
		SameSite: m.cfg.SameSite,
	}
}
