package posts

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Handler wires HTTP endpoints for the wall.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	errors   *httpx.ErrorWriter
	auth     auth.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, errors *httpx.ErrorWriter, authmw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, errors: errors, auth: authmw, validate: validator.New()}
}

// MountRoutes registers wall routes. Reads are public (with optional
// identity for dual-behavior routes); every write requires a verified
// bearer token, and the sensitive ones stack further guards.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.auth.OptionalAuthenticate)
		r.Get("/", h.handleList)
		r.Get("/{postID}", h.handleGet)
		r.Get("/{postID}/comments", h.handleListComments)
		r.Get("/{postID}/reactions", h.handleListReactions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.auth.Authenticate)
		r.Post("/", h.handleCreate)
		r.Patch("/{postID}", h.handleUpdate)
		r.Delete("/{postID}", h.handleDelete)
		r.Post("/{postID}/comments", h.handleAddComment)
		r.Delete("/comments/{commentID}", h.handleDeleteComment)
		r.Put("/{postID}/reactions", h.handleReact)
		r.Delete("/{postID}/reactions", h.handleUnreact)

		r.With(h.auth.RequireMinimumRole(auth.RoleTeacher)).Post("/{postID}/pin", h.handlePin)
		r.With(h.auth.RequireMinimumRole(auth.RoleTeacher)).Delete("/{postID}/pin", h.handleUnpin)

		// Moderation: hard delete of any comment, admin only.
		r.With(h.auth.RequireRoles(auth.RoleAdmin)).Delete("/moderation/comments/{commentID}", h.handleModerateComment)
	})
}

type postRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required,max=10000"`
}

type commentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

type reactionRequest struct {
	Kind string `json:"kind" validate:"required"`
}

type listResponse struct {
	Items      []Post            `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromRequest(r)
	items, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	if items == nil {
		items = []Post{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req postRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	post, err := h.service.Create(r.Context(), identity, strings.TrimSpace(req.Title), req.Body)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req postRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	post, err := h.service.Update(r.Context(), identity, chi.URLParam(r, "postID"), strings.TrimSpace(req.Title), req.Body)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Delete(r.Context(), identity, chi.URLParam(r, "postID")); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handlePin(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, true)
}

func (h *Handler) handleUnpin(w http.ResponseWriter, r *http.Request) {
	h.setPinned(w, r, false)
}

func (h *Handler) setPinned(w http.ResponseWriter, r *http.Request, pinned bool) {
	post, err := h.service.SetPinned(r.Context(), chi.URLParam(r, "postID"), pinned)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req commentRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	comment, err := h.service.AddComment(r.Context(), identity, chi.URLParam(r, "postID"), req.Body)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	httpx.JSON(w, http.StatusOK, comments)
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.DeleteComment(r.Context(), identity, chi.URLParam(r, "commentID")); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleModerateComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.DeleteComment(r.Context(), identity, chi.URLParam(r, "commentID")); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleReact(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	var req reactionRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	reaction, err := h.service.React(r.Context(), identity, chi.URLParam(r, "postID"), req.Kind)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reaction)
}

func (h *Handler) handleUnreact(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	if err := h.service.Unreact(r.Context(), identity, chi.URLParam(r, "postID")); err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleListReactions(w http.ResponseWriter, r *http.Request) {
	reactions, err := h.service.ListReactions(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}
	if reactions == nil {
		reactions = []Reaction{}
	}
	httpx.JSON(w, http.StatusOK, reactions)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	if err := h.validate.Struct(target); err != nil {
		verr := shared.Validation("Request validation failed").WithCode("VALIDATION")
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				verr = verr.WithFields(shared.FieldError{Field: strings.ToLower(fe.Field()), Message: "failed " + fe.Tag() + " rule"})
			}
		}
		return verr
	}
	return nil
}
