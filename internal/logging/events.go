package logging

import "log/slog"

// Event categories tagged onto domain log lines so operators can filter
// the security-relevant stream.
const (
	CategoryAuth       = "auth"
	CategoryAccess     = "access"
	CategoryValidation = "validation"
	CategoryRateLimit  = "rate_limit"
	CategorySecurity   = "security"
)

// Security event severities. High and critical surface at error level.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AuthEvent records an authentication lifecycle event: login, logout,
// token issue, verification failure.
func AuthEvent(l *slog.Logger, event string, args ...any) {
	l.Info("auth event", append([]any{"category", CategoryAuth, "event", event}, args...)...)
}

// AccessDenied records an authorization refusal.
func AccessDenied(l *slog.Logger, reason string, args ...any) {
	l.Warn("access denied", append([]any{"category", CategoryAccess, "reason", reason}, args...)...)
}

// ValidationFailure records each failing request field.
func ValidationFailure(l *slog.Logger, path string, fields map[string]string) {
	args := []any{"category", CategoryValidation, "path", path}
	for field, msg := range fields {
		args = append(args, "field_"+field, msg)
	}
	l.Info("validation failed", args...)
}

// RateLimitEvent records a request refused by the limiter.
func RateLimitEvent(l *slog.Logger, origin string, args ...any) {
	l.Warn("rate limit exceeded", append([]any{"category", CategoryRateLimit, "origin", origin}, args...)...)
}

// SecurityEvent records a general security observation. Severity picks
// the log level so critical events cannot drown at info.
func SecurityEvent(l *slog.Logger, severity, event string, args ...any) {
	all := append([]any{"category", CategorySecurity, "severity", severity, "event", event}, args...)
	switch severity {
	case SeverityHigh, SeverityCritical:
		l.Error("security event", all...)
	case SeverityMedium:
		l.Warn("security event", all...)
	default:
		l.Info("security event", all...)
	}
}
