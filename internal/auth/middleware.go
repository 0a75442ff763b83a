package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Middleware enforces authentication and authorization on routes. Every
// guard fails closed: no identity in context means 401, whatever the
// chain above was supposed to do.
type Middleware struct {
	tokens *TokenService
	logger *slog.Logger
	errors *httpx.ErrorWriter
}

// NewMiddleware builds the middleware family around a token service.
func NewMiddleware(tokens *TokenService, logger *slog.Logger, errors *httpx.ErrorWriter) Middleware {
	return Middleware{tokens: tokens, logger: logger, errors: errors}
}

// Authenticate requires a valid bearer token and attaches the verified
// identity to the request context. The response never says why a token
// was rejected; the logs do.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, authErr := bearerToken(r)
		if authErr != nil {
			m.errors.Respond(w, r, authErr)
			return
		}
		identity, err := m.tokens.Verify(token)
		if err != nil {
			logging.AuthEvent(m.logger, "token_rejected", "cause", err.Error(), "path", r.URL.Path)
			m.errors.Respond(w, r, shared.Authentication("Invalid or expired authentication"))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// OptionalAuthenticate attaches an identity when a valid bearer token is
// present and leaves the request anonymous otherwise. An expired or
// garbled token is not an error here.
func (m Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, authErr := bearerToken(r)
		if authErr != nil {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := m.tokens.Verify(token)
		if err != nil {
			logging.AuthEvent(m.logger, "optional_token_rejected", "cause", err.Error(), "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRoles allows only the listed roles through. Absence from the
// allowlist denies, including roles that outrank every listed one.
func (m Middleware) RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	allowedSet := make(map[Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				m.errors.Respond(w, r, shared.Authentication("Authentication required"))
				return
			}
			if _, ok := allowedSet[identity.Role]; !ok {
				logging.AccessDenied(m.logger, "role_not_allowed", "subject", identity.SubjectID, "role", string(identity.Role), "path", r.URL.Path)
				m.errors.Respond(w, r, shared.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinimumRole allows any role at or above min in the hierarchy.
func (m Middleware) RequireMinimumRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				m.errors.Respond(w, r, shared.Authentication("Authentication required"))
				return
			}
			if !identity.Role.AtLeast(min) {
				logging.AccessDenied(m.logger, "below_minimum_role", "subject", identity.SubjectID, "role", string(identity.Role), "path", r.URL.Path)
				m.errors.Respond(w, r, shared.Forbidden("Insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership restricts the route to the subject whose id equals
// the named URL parameter. Admins bypass the check.
func (m Middleware) RequireOwnership(param string) func(http.Handler) http.Handler {
	return m.requireOwnership(param, true)
}

// RequireStrictOwnership is RequireOwnership without the admin bypass.
func (m Middleware) RequireStrictOwnership(param string) func(http.Handler) http.Handler {
	return m.requireOwnership(param, false)
}

func (m Middleware) requireOwnership(param string, adminBypass bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				m.errors.Respond(w, r, shared.Authentication("Authentication required"))
				return
			}
			owner := chi.URLParam(r, param)
			if !OwnsResource(identity, owner, adminBypass) {
				logging.AccessDenied(m.logger, "not_resource_owner", "subject", identity.SubjectID, "owner", owner, "path", r.URL.Path)
				m.errors.Respond(w, r, shared.Forbidden("You do not own this resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnsResource reports whether the identity may act on a resource owned
// by ownerID. Services reuse it for checks the middleware cannot make,
// like post authorship fetched from storage.
func OwnsResource(id Identity, ownerID string, adminBypass bool) bool {
	if adminBypass && id.Role == RoleAdmin {
		return true
	}
	return ownerID != "" && id.SubjectID == ownerID
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", shared.Authentication("Authentication required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", shared.Authentication("Invalid authentication scheme")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", shared.Authentication("Authentication required")
	}
	return token, nil
}
