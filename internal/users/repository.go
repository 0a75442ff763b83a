package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/shared"
)

// Repository defines persistence operations for wall accounts. Every
// implementation returns taxonomy errors, never raw driver errors.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id, name string) (*User, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	CompletePasswordReset(ctx context.Context, id, passwordHash string) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, role, password_hash, COALESCE(reset_token_hash, ''), COALESCE(reset_token_expires_at, 'epoch'::timestamptz), created_at, updated_at`

func (r *PGRepository) scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.ResetTokenHash, &u.ResetTokenExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, shared.StoreError(err)
	}
	return &u, nil
}

// Create inserts a new account. Duplicate emails surface as Conflict.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Name, user.Role, user.PasswordHash)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		return shared.StoreError(err)
	}
	return nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindByID fetches an account by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateProfile changes the display name.
func (r *PGRepository) UpdateProfile(ctx context.Context, id, name string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, name))
}

// SetResetToken stores the fingerprint and expiry of a new reset token,
// replacing any previous one.
func (r *PGRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = now()
		WHERE id = $1`, id, tokenHash, expires)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("User not found")
	}
	return nil
}

// CompletePasswordReset swaps in the new hash and drops the token
// fingerprint in one statement, so a redeemed token can never survive
// a crash between the two writes.
func (r *PGRepository) CompletePasswordReset(ctx context.Context, id, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = now()
		WHERE id = $1`, id, passwordHash)
	if err != nil {
		return shared.StoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("User not found")
	}
	return nil
}

// PurgeExpiredResetTokens clears fingerprints whose expiry passed. Run
// by the background worker so dead tokens do not linger in storage.
func (r *PGRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at < $1`, now)
	if err != nil {
		return 0, shared.StoreError(err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Repository = (*PGRepository)(nil)
