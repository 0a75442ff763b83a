package httpx

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// ErrorDetail is the body of the error envelope.
type ErrorDetail struct {
	Message   string              `json:"message"`
	Code      string              `json:"code,omitempty"`
	RequestID string              `json:"requestId,omitempty"`
	Errors    []shared.FieldError `json:"errors,omitempty"`
	Stack     string              `json:"stack,omitempty"`
}

// ErrorEnvelope wraps every error response in one stable shape.
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// ErrorWriter is the catch-all error responder. It normalizes anything
// into the taxonomy, logs it through the sanitizing logger, and masks
// internal detail in production.
type ErrorWriter struct {
	Logger     *slog.Logger
	Production bool
	Debug      bool
}

// NewErrorWriter builds an ErrorWriter.
func NewErrorWriter(logger *slog.Logger, production, debug bool) *ErrorWriter {
	return &ErrorWriter{Logger: logger, Production: production, Debug: debug}
}

// Respond writes err as the JSON error envelope. Operational errors keep
// their message; everything else is replaced with a generic string in
// production while the cause goes to the logs.
func (ew *ErrorWriter) Respond(w http.ResponseWriter, r *http.Request, err error) {
	e := shared.From(err)
	status := e.HTTPStatus()
	requestID := middleware.GetReqID(r.Context())

	ew.logError(r, e, requestID)

	message := e.Message
	if status >= http.StatusInternalServerError && ew.Production {
		message = "Internal server error"
	}

	detail := ErrorDetail{
		Message:   message,
		Code:      e.Code,
		RequestID: requestID,
		Errors:    e.Fields,
	}
	if e.Stack != "" && ew.Debug && !ew.Production {
		detail.Stack = e.Stack
	}

	if e.Kind == shared.KindRateLimit && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}

	JSON(w, status, ErrorEnvelope{Error: detail})
}

func (ew *ErrorWriter) logError(r *http.Request, e *shared.Error, requestID string) {
	base := []any{
		"requestId", requestID,
		"method", r.Method,
		"path", r.URL.Path,
	}
	switch {
	case !e.Operational || e.Kind == shared.KindInternal:
		ew.Logger.Error("request failed", append(base, "error", e.Error())...)
		logging.SecurityEvent(ew.Logger, logging.SeverityHigh, "unhandled_error", append(base, "kind", string(e.Kind))...)
	case e.Kind == shared.KindAuthentication:
		logging.AuthEvent(ew.Logger, "request_unauthenticated", append(base, "detail", e.Message)...)
	case e.Kind == shared.KindForbidden:
		logging.AccessDenied(ew.Logger, e.Message, base...)
	case e.Kind == shared.KindValidation:
		fields := make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			fields[f.Field] = f.Message
		}
		logging.ValidationFailure(ew.Logger, r.URL.Path, fields)
	case e.Kind == shared.KindRateLimit:
		logging.RateLimitEvent(ew.Logger, r.RemoteAddr, "path", r.URL.Path)
	default:
		ew.Logger.Info("request rejected", append(base, "kind", string(e.Kind), "detail", e.Message)...)
	}
}
