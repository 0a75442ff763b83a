package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordCost is the lowest bcrypt cost the service will accept.
// Configured values below it are clamped up, never honored.
const MinPasswordCost = 10

// DefaultPasswordCost is used when no cost is configured.
const DefaultPasswordCost = 12

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// Costs below MinPasswordCost are raised to the floor.
func HashPassword(plain string, cost int) (string, error) {
	if cost < MinPasswordCost {
		cost = MinPasswordCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("crypto: hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
