package logging

import (
	"context"
	"log/slog"
)

// sanitizingHandler scrubs every record before the wrapped handler
// serializes it. Nothing reaches the sink unsanitized, including attrs
// bound early via With.
type sanitizingHandler struct {
	inner slog.Handler
}

func (h *sanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *sanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	clean := slog.NewRecord(rec.Time, rec.Level, RedactPatterns(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(sanitizeAttr(a, 0))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *sanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = sanitizeAttr(a, 0)
	}
	return &sanitizingHandler{inner: h.inner.WithAttrs(cleaned)}
}

func (h *sanitizingHandler) WithGroup(name string) slog.Handler {
	return &sanitizingHandler{inner: h.inner.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr, depth int) slog.Attr {
	if depth > maxDepth {
		return slog.String(a.Key, DepthExceeded)
	}
	if SensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, RedactPatterns(v.String()))
	case slog.KindGroup:
		attrs := v.Group()
		cleaned := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			cleaned[i] = sanitizeAttr(ga, depth+1)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleaned...)}
	case slog.KindAny:
		return slog.Any(a.Key, sanitizeValue(v.Any(), depth+1))
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}
