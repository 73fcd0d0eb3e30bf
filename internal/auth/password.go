package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Hasher adapts the package functions to the user service.
type Hasher struct{}

func (Hasher) Hash(password string) (string, error) {
	return HashPassword(password)
}

func (Hasher) Compare(password, hash string) bool {
	return CheckPassword(password, hash)
}
