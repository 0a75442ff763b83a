package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/platform/httpx"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/session"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// HandlerConfig collects the handler's collaborators.
type HandlerConfig struct {
	Logger   *slog.Logger
	Service  *Service
	Sessions *session.Manager
	Errors   *httpx.ErrorWriter
	Auth     auth.Middleware

	// CredentialLimiter throttles the endpoints that accept passwords.
	// Nil disables the tighter limit (tests).
	CredentialLimiter func(http.Handler) http.Handler
}

// Handler wires HTTP endpoints for accounts and authentication flows.
type Handler struct {
	cfg      HandlerConfig
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, validate: validator.New()}
}

// MountAuthRoutes registers credential and session routes.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.cfg.CredentialLimiter != nil {
			r.Use(h.cfg.CredentialLimiter)
		}
		// Optional auth: an admin bearer token lets registration create
		// elevated accounts; everyone else self-registers as student.
		r.With(h.cfg.Auth.OptionalAuthenticate).Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/password-reset", h.handleResetRequest)
		r.Post("/password-reset/confirm", h.handleResetConfirm)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.cfg.Auth.Authenticate)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
	})
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.cfg.Auth.OptionalAuthenticate)
		r.Get("/{userID}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.cfg.Auth.Authenticate)
		r.Use(h.cfg.Auth.RequireOwnership("userID"))
		r.Patch("/{userID}", h.handleUpdateProfile)
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	var actor *auth.Identity
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		actor = &id
	}
	user, token, err := h.cfg.Service.Register(r.Context(), RegisterInput{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Name:     strings.TrimSpace(req.Name),
		Password: req.Password,
		Role:     auth.Role(req.Role),
	}, actor)
	if err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	h.establishSession(w, r)
	httpx.JSON(w, http.StatusCreated, authResponse{Token: token, User: user.Public()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	user, token, err := h.cfg.Service.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password, r.RemoteAddr)
	if err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	h.establishSession(w, r)
	httpx.NoStore(w)
	httpx.JSON(w, http.StatusOK, authResponse{Token: token, User: user.Public()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id, ok := session.SessionIDFromContext(r.Context()); ok {
		if err := h.cfg.Sessions.Destroy(r.Context(), w, id); err != nil {
			h.cfg.Logger.Warn("destroy session", "error", err.Error())
		}
	} else {
		h.cfg.Sessions.Clear(w)
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	user, err := h.cfg.Service.Get(r.Context(), identity.SubjectID)
	if err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	httpx.NoStore(w)
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.cfg.Service.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := h.decode(r, &req); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	user, err := h.cfg.Service.UpdateProfile(r.Context(), chi.URLParam(r, "userID"), strings.TrimSpace(req.Name))
	if err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.decode(r, &req); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	if err := h.cfg.Service.RequestPasswordReset(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := h.decode(r, &req); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	if err := h.cfg.Service.ConfirmPasswordReset(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Token, req.Password); err != nil {
		h.cfg.Errors.Respond(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// establishSession rotates the session id and CSRF token. Run after any
// privilege change so a pre-set session id never survives login.
func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request) {
	if _, err := h.cfg.Sessions.Regenerate(r.Context(), w); err != nil {
		h.cfg.Logger.Error("regenerate session", "error", err.Error())
	}
	if _, err := h.cfg.Sessions.IssueCSRF(w); err != nil {
		h.cfg.Logger.Error("rotate csrf token", "error", err.Error())
	}
}

// decode parses and validates a JSON body, converting validator output
// into field-level taxonomy errors.
func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	if err := h.validate.Struct(target); err != nil {
		verr := shared.Validation("Request validation failed").WithCode("VALIDATION")
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr = verr.WithFields(shared.FieldError{Field: strings.ToLower(fe.Field()), Message: "failed " + fe.Tag() + " rule"})
			}
		}
		return verr
	}
	return nil
}
