// Package auth holds the credential primitives of the admin panel: password
// hashing, signed session tokens and the inactivity policy.
package auth

import (
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"sitecms/internal/domain"
)

// MinPasswordLength is enforced when an admin account is created or rotated.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail performs the same shape check as the login form.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", domain.Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
