package users

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/crypto"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/logging"
	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// ResetTokenTTL bounds how long a password-reset token stays usable.
const ResetTokenTTL = time.Hour

const resetTokenLength = 64

// Mailer enqueues outbound mail. The worker owns actual delivery.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// Service wraps account business rules: registration, credential checks,
// and the double-hashed reset-token flow.
type Service struct {
	repo   Repository
	tokens *auth.TokenService
	mailer Mailer
	audit  *shared.AuditTrail
	logger *slog.Logger
	cost   int
}

// NewService constructs a Service. A nil mailer downgrades reset mail to
// a log line, which is what tests and local development want.
func NewService(repo Repository, tokens *auth.TokenService, mailer Mailer, audit *shared.AuditTrail, logger *slog.Logger, bcryptCost int) *Service {
	return &Service{repo: repo, tokens: tokens, mailer: mailer, audit: audit, logger: logger, cost: bcryptCost}
}

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     auth.Role
}

// Register creates an account and issues its first identity token.
// Everyone self-registers as student; only an admin actor may create
// teacher or admin accounts.
func (s *Service) Register(ctx context.Context, in RegisterInput, actor *auth.Identity) (*User, string, error) {
	role := in.Role
	if role == "" {
		role = auth.RoleStudent
	}
	if !role.Valid() {
		return nil, "", shared.Validation("Unknown role").WithFields(shared.FieldError{Field: "role", Message: "must be student, teacher, or admin"})
	}
	if role != auth.RoleStudent && (actor == nil || actor.Role != auth.RoleAdmin) {
		return nil, "", shared.Forbidden("Only admins may create elevated accounts")
	}

	hash, err := crypto.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, "", shared.Internal(err)
	}
	id, err := crypto.UUID()
	if err != nil {
		return nil, "", shared.Internal(err)
	}
	user := &User{ID: id, Email: in.Email, Name: in.Name, Role: role, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", shared.Internal(err)
	}
	logging.AuthEvent(s.logger, "registered", "subject", user.ID, "role", string(user.Role))
	s.record(ctx, user.ID, "user.register", user.ID)
	return user, token, nil
}

// Login verifies credentials and issues an identity token. Every failure
// collapses to the same generic answer; the logs keep the cause.
func (s *Service) Login(ctx context.Context, email, password, origin string) (*User, string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			logging.AuthEvent(s.logger, "login_failed", "cause", "unknown_email", "origin", origin)
			return nil, "", invalidCredentials()
		}
		return nil, "", err
	}
	if !crypto.CheckPassword(user.PasswordHash, password) {
		logging.AuthEvent(s.logger, "login_failed", "cause", "bad_password", "subject", user.ID, "origin", origin)
		return nil, "", invalidCredentials()
	}
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", shared.Internal(err)
	}
	logging.AuthEvent(s.logger, "login", "subject", user.ID, "origin", origin)
	s.record(ctx, user.ID, "user.login", user.ID)
	return user, token, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes the display name. Ownership is enforced by the
// route middleware before this runs.
func (s *Service) UpdateProfile(ctx context.Context, id, name string) (*User, error) {
	return s.repo.UpdateProfile(ctx, id, name)
}

// RequestPasswordReset issues a single-use reset token, stores only its
// fingerprint, and mails the raw value. An unknown email is reported as
// success so the endpoint cannot be used to probe the account list.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			logging.AuthEvent(s.logger, "reset_requested_unknown_email")
			return nil
		}
		return err
	}
	token, err := crypto.Token(resetTokenLength, crypto.Hex)
	if err != nil {
		return shared.Internal(err)
	}
	expires := time.Now().Add(ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, crypto.Hash(token), expires); err != nil {
		return err
	}
	logging.AuthEvent(s.logger, "reset_requested", "subject", user.ID)
	s.record(ctx, user.ID, "user.reset_request", user.ID)

	body := fmt.Sprintf("Use this token to reset your password within the next hour: %s", token)
	if s.mailer == nil {
		s.logger.Info("mailer not configured, skipping reset mail", "subject", user.ID)
		return nil
	}
	if err := s.mailer.EnqueueSendEmail(ctx, user.Email, "Password reset", body); err != nil {
		return shared.Internal(err)
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token. The stored fingerprint is
// compared in constant time and cleared on success, so a token works at
// most once.
func (s *Service) ConfirmPasswordReset(ctx context.Context, email, token, newPassword string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return invalidResetToken()
		}
		return err
	}
	if user.ResetTokenHash == "" || time.Now().After(user.ResetTokenExpires) {
		logging.AuthEvent(s.logger, "reset_rejected", "cause", "expired_or_absent", "subject", user.ID)
		return invalidResetToken()
	}
	if !crypto.ConstantTimeEqual(user.ResetTokenHash, crypto.Hash(token)) {
		logging.AuthEvent(s.logger, "reset_rejected", "cause", "token_mismatch", "subject", user.ID)
		return invalidResetToken()
	}
	hash, err := crypto.HashPassword(newPassword, s.cost)
	if err != nil {
		return shared.Internal(err)
	}
	if err := s.repo.CompletePasswordReset(ctx, user.ID, hash); err != nil {
		return err
	}
	logging.AuthEvent(s.logger, "reset_completed", "subject", user.ID)
	s.record(ctx, user.ID, "user.reset_confirm", user.ID)
	return nil
}

func (s *Service) record(ctx context.Context, actorID, action, target string) {
	if err := s.audit.Record(ctx, shared.AuditEntry{ActorID: actorID, Action: action, Target: target}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err.Error())
	}
}

func invalidCredentials() error {
	return shared.Authentication("Invalid email or password").WithCode("INVALID_CREDENTIALS")
}

func invalidResetToken() error {
	return shared.Authentication("Invalid or expired reset token").WithCode("INVALID_RESET_TOKEN")
}
