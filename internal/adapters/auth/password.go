package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"eventcalendar/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const saltBytes = 32

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher that runs bcrypt over SHA-256(salt+password).
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) domain.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (h *bcryptHasher) Hash(salt, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(salt, password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, salt, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(salt, password))
}

// prehash keeps bcrypt input under its 72 byte limit regardless of password length.
func prehash(salt, password string) []byte {
	sum := sha256.Sum256([]byte(salt + password))
	return []byte(hex.EncodeToString(sum[:]))
}
