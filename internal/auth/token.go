package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when no lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// DevFallbackSecret signs tokens when no secret is configured outside
// production. Guessable on purpose; startup refuses it in production.
const DevFallbackSecret = "wall-dev-secret-do-not-deploy"

// Verification failure causes. Internal diagnostics only: handlers
// collapse all of them into one generic unauthorized answer while the
// logs keep the specific cause.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token signature invalid")
)

// Identity is the verified subject attached to a request after token
// verification.
type Identity struct {
	SubjectID string
	Role      Role
}

// Claims is the payload carried inside an identity token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring identity tokens.
// Tokens are self-contained; there is no server-side revocation list, so
// a leaked token stays valid until it expires.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService builds a token service. A non-positive ttl falls back
// to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// TTL exposes the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token binding subjectID to role for the configured TTL.
func (s *TokenService) Issue(subjectID string, role Role) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("auth: issue token: empty subject")
	}
	if !role.Valid() {
		return "", fmt.Errorf("auth: issue token: unknown role %q", role)
	}
	now := time.Now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it binds.
// The error distinguishes expiry, malformation, and signature mismatch
// for logging; none of that distinction may reach the client.
func (s *TokenService) Verify(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, ErrTokenMalformed
		default:
			return Identity{}, ErrTokenInvalid
		}
	}
	if claims.Subject == "" {
		return Identity{}, ErrTokenMalformed
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{SubjectID: claims.Subject, Role: role}, nil
}
