package auth_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
)

func testMiddleware(t *testing.T) (auth.Middleware, *auth.TokenService) {
	t.Helper()
	logger := logging.New(logging.Config{Output: io.Discard})
	tokens := auth.NewTokenService(testSecret, time.Hour, "ccit-wall")
	ew := httpx.NewErrorWriter(logger, false, false)
	return auth.NewMiddleware(tokens, logger, ew), tokens
}

func issueToken(t *testing.T, tokens *auth.TokenService, subject string, role auth.Role) string {
	t.Helper()
	token, err := tokens.Issue(subject, role)
	require.NoError(t, err)
	return token
}

func expiredToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		Role: string(auth.RoleStudent),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-8",
			Issuer:    "ccit-wall",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func errorMessage(t *testing.T, body io.Reader) string {
	t.Helper()
	var env httpx.ErrorEnvelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env.Error.Message
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticateAttachesIdentity(t *testing.T) {
	mw, tokens := testMiddleware(t)

	var got auth.Identity
	h := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok)
		got = identity
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "user-7", auth.RoleTeacher))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-7", got.SubjectID)
	assert.Equal(t, auth.RoleTeacher, got.Role)
}

func TestAuthenticateHeaderFailures(t *testing.T) {
	mw, _ := testMiddleware(t)
	h := mw.Authenticate(http.HandlerFunc(okHandler))

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "Authentication required"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Invalid authentication scheme"},
		{"no separator", "Bearertoken", "Invalid authentication scheme"},
		{"empty token", "Bearer ", "Authentication required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.message, errorMessage(t, rec.Body))
		})
	}
}

func TestAuthenticateForeignTokenGenericMessage(t *testing.T) {
	mw, _ := testMiddleware(t)
	h := mw.Authenticate(http.HandlerFunc(okHandler))

	// Well-formed, signed by someone else.
	foreign := auth.NewTokenService("not-our-secret", time.Hour, "elsewhere")
	token := issueToken(t, foreign, "user-7", auth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired authentication", errorMessage(t, rec.Body))
}

func TestAuthenticateBearerCaseInsensitive(t *testing.T) {
	mw, tokens := testMiddleware(t)
	h := mw.Authenticate(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "bearer "+issueToken(t, tokens, "user-7", auth.RoleStudent))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuthenticate(t *testing.T) {
	mw, tokens := testMiddleware(t)

	var identity auth.Identity
	var present bool
	h := mw.OptionalAuthenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, present = auth.IdentityFromContext(r.Context())
	}))

	// Anonymous request passes through.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, present)

	// Expired token is not an error on optional routes.
	shortLived := auth.NewTokenService(testSecret, -time.Hour, "ccit-wall")
	_ = shortLived
	expired := expiredToken(t)
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, present)

	// Valid token attaches the identity.
	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "user-9", auth.RoleStudent))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, present)
	assert.Equal(t, "user-9", identity.SubjectID)
}

func TestRequireRolesAllowlist(t *testing.T) {
	mw, tokens := testMiddleware(t)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.With(mw.RequireRoles(auth.RoleTeacher)).Get("/teacher-only", okHandler)
	})

	// Allowed role passes.
	req := httptest.NewRequest(http.MethodGet, "/teacher-only", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "t-1", auth.RoleTeacher))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Role outside the allowlist is refused, even one that outranks it.
	req = httptest.NewRequest(http.MethodGet, "/teacher-only", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "a-1", auth.RoleAdmin))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/teacher-only", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "s-1", auth.RoleStudent))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorizationFailsClosedWithoutAuthenticate(t *testing.T) {
	mw, _ := testMiddleware(t)

	// Misconfigured route: the guard runs without Authenticate first.
	h := mw.RequireRoles(auth.RoleStudent)(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/misconfigured", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h = mw.RequireMinimumRole(auth.RoleStudent)(http.HandlerFunc(okHandler))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/misconfigured", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	h = mw.RequireOwnership("id")(http.HandlerFunc(okHandler))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/misconfigured", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireMinimumRoleHierarchy(t *testing.T) {
	mw, tokens := testMiddleware(t)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.With(mw.RequireMinimumRole(auth.RoleTeacher)).Post("/pin", okHandler)
	})

	send := func(role auth.Role) int {
		req := httptest.NewRequest(http.MethodPost, "/pin", nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, "u-1", role))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, send(auth.RoleStudent))
	assert.Equal(t, http.StatusOK, send(auth.RoleTeacher))
	assert.Equal(t, http.StatusOK, send(auth.RoleAdmin))
}

func TestRequireOwnership(t *testing.T) {
	mw, tokens := testMiddleware(t)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.With(mw.RequireOwnership("id")).Get("/users/{id}", okHandler)
		r.With(mw.RequireStrictOwnership("id")).Delete("/users/{id}/sessions", okHandler)
	})

	send := func(method, path string, subject string, role auth.Role) int {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, subject, role))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	// Owner passes.
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/users/u-5", "u-5", auth.RoleStudent))
	// Admin bypass on a mismatched id.
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/users/u-5", "admin-1", auth.RoleAdmin))
	// Mismatched student is refused.
	assert.Equal(t, http.StatusForbidden, send(http.MethodGet, "/users/u-5", "u-6", auth.RoleStudent))
	// Strict variant refuses even admins.
	assert.Equal(t, http.StatusForbidden, send(http.MethodDelete, "/users/u-5/sessions", "admin-1", auth.RoleAdmin))
	assert.Equal(t, http.StatusOK, send(http.MethodDelete, "/users/u-5/sessions", "u-5", auth.RoleAdmin))
}

func TestOwnsResource(t *testing.T) {
	student := auth.Identity{SubjectID: "u-1", Role: auth.RoleStudent}
	admin := auth.Identity{SubjectID: "a-1", Role: auth.RoleAdmin}

	assert.True(t, auth.OwnsResource(student, "u-1", true))
	assert.False(t, auth.OwnsResource(student, "u-2", true))
	assert.True(t, auth.OwnsResource(admin, "u-2", true))
	assert.False(t, auth.OwnsResource(admin, "u-2", false))
	assert.False(t, auth.OwnsResource(student, "", true), "empty owner id never matches")
}
