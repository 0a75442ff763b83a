package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLoggerRedactsSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})

	logger.Info("user login", "email", "ada@college.edu", "password", "hunter2")

	entry := logLine(t, &buf)
	assert.Equal(t, "user login", entry["msg"])
	assert.Equal(t, "ada@college.edu", entry["email"])
	assert.Equal(t, Redacted, entry["password"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestLoggerRedactsBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf}).With("apiKey", "ak-998877")

	logger.Info("ping")

	entry := logLine(t, &buf)
	assert.Equal(t, Redacted, entry["apiKey"])
	assert.NotContains(t, buf.String(), "ak-998877")
}

func TestLoggerRedactsMessagePatterns(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	logger.Warn("rejected header Bearer abc123def456ghi789jkl")

	entry := logLine(t, &buf)
	msg, _ := entry["msg"].(string)
	assert.Contains(t, msg, "Bearer "+Redacted)
	assert.NotContains(t, buf.String(), "abc123def456ghi789jkl")
}

func TestLoggerLevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden")
	require.Zero(t, buf.Len())

	logger.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestLoggerPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "pretty", Output: &buf})

	logger.Info("startup", "addr", ":8080")

	out := buf.String()
	assert.Contains(t, out, "msg=startup")
	assert.Contains(t, out, "addr=:8080")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
}

func TestSecurityEventSeverityPicksLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})

	SecurityEvent(logger, SeverityCritical, "unhandled panic")
	entry := logLine(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, CategorySecurity, entry["category"])
	assert.Equal(t, SeverityCritical, entry["severity"])

	buf.Reset()
	SecurityEvent(logger, SeverityLow, "optional token absent")
	entry = logLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
}

func TestAuthAndRateLimitEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: "json", Output: &buf})

	AuthEvent(logger, "login", "subject", "u-1")
	entry := logLine(t, &buf)
	assert.Equal(t, CategoryAuth, entry["category"])
	assert.Equal(t, "login", entry["event"])
	assert.Equal(t, "u-1", entry["subject"])

	buf.Reset()
	RateLimitEvent(logger, "10.0.0.9", "path", "/api/auth/login")
	entry = logLine(t, &buf)
	assert.Equal(t, CategoryRateLimit, entry["category"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "10.0.0.9", entry["origin"])
}
