package users

import (
	"time"

	"github.com/jomcas/ccit-wall-2026-sub001/internal/auth"
)

// User is a wall account. PasswordHash and the reset token fingerprint
// never leave this package: API responses go through Public.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         auth.Role
	PasswordHash string

	// Reset token state: the SHA-256 fingerprint of the last issued
	// token and its expiry. The raw token is never stored.
	ResetTokenHash    string
	ResetTokenExpires time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the caller-visible projection of an account.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credential material from the account.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
