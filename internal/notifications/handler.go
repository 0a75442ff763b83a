package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Handler wires HTTP endpoints for notifications. Every route is scoped
// to the authenticated caller; there is no way to read another user's
// feed.
type Handler struct {
	logger  *slog.Logger
	service *Service
	errors  *httpx.ErrorWriter
	auth    auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, errors *httpx.ErrorWriter, authmw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, errors: errors, auth: authmw}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.auth.Authenticate)
	r.Get("/", h.handleList)
	r.Post("/read", h.handleMarkAllRead)
	r.Post("/{notificationID}/read", h.handleMarkRead)
}

type listResponse struct {
	Items      []Notification    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	page, perPage := shared.PageFromRequest(r)
	items, pagination, err := h.service.List(r.Context(), identity.SubjectID, page, perPage)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	if items == nil {
		items = []Notification{}
	}
	httpx.NoStore(w)
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), identity.SubjectID); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	count, err := h.service.MarkAllRead(r.Context(), identity.SubjectID)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"updated": count})
}
