package logging

import (
	"regexp"
	"strings"
)

// Redacted replaces any value whose key looks sensitive.
const Redacted = "[REDACTED]"

// DepthExceeded replaces values nested deeper than maxDepth. Bounding the
// walk keeps pathological or cyclic payloads from pinning the logger.
const DepthExceeded = "[DEPTH_EXCEEDED]"

const maxDepth = 10

// sensitiveKeys are matched as substrings against lowercased key names
// with separators stripped, so password, Password, api_key and apiKey all
// hit the list.
var sensitiveKeys = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"authorization",
	"bearer",
	"cookie",
	"session",
	"csrf",
	"credential",
	"privatekey",
	"signingkey",
	"ssn",
	"creditcard",
	"cardnumber",
	"cvv",
	"cvc",
	"pin",
	"otp",
}

var (
	jwtPattern    = regexp.MustCompile(`[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)
)

var keySeparators = strings.NewReplacer("_", "", "-", "", ".", "", " ", "")

// SensitiveKey reports whether a field name should have its entire value
// redacted, whatever the value's type.
func SensitiveKey(key string) bool {
	normalized := keySeparators.Replace(strings.ToLower(key))
	for _, s := range sensitiveKeys {
		if strings.Contains(normalized, s) {
			return true
		}
	}
	return false
}

// RedactPatterns scrubs token-shaped substrings out of s while keeping
// the surrounding text intact.
func RedactPatterns(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer "+Redacted)
	s = jwtPattern.ReplaceAllString(s, Redacted)
	return s
}

// Sanitize walks v and returns a copy safe to serialize: sensitive keys
// are replaced wholesale, strings are scrubbed for token patterns, and
// recursion stops at depth 10.
func Sanitize(v any) any {
	return sanitizeValue(v, 0)
}

func sanitizeValue(v any, depth int) any {
	if depth > maxDepth {
		return DepthExceeded
	}
	switch val := v.(type) {
	case string:
		return RedactPatterns(val)
	case error:
		return RedactPatterns(val.Error())
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if SensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = sanitizeValue(item, depth+1)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if SensitiveKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = RedactPatterns(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item, depth+1)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = RedactPatterns(item)
		}
		return out
	default:
		return v
	}
}
