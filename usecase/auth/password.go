package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/portal-cidadao/domain"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 6

// HashPassword validates and hashes a plain password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", domain.Invalidf("password must have at least %d characters", MinPasswordLength)
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a hash with a plain password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}
