// Package httpx translates service results and taxonomy errors into HTTP
// responses. Every error leaving the API goes through ErrorWriter so the
// envelope shape, masking rules, and log events stay in one place.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

const maxBodyBytes = 1 << 20

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent sends an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// NoStore forbids intermediaries from caching the response. Applied to
// every response produced for an authenticated caller.
func NoStore(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// DecodeJSON decodes the request body into target. Unknown fields and
// oversized bodies are validation errors, not internal ones.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return shared.Validation("Invalid JSON body").WithCode("BAD_JSON")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return shared.Validation("Invalid JSON body").WithCode("BAD_JSON")
	}
	return nil
}
