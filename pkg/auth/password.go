package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// PasswordHasher computes the salted password hash the interpreter stores.
// The salt is process-wide configuration; the hash format (hex SHA-256 over
// password+salt) must match the interpreter's stored records exactly.
type PasswordHasher struct {
	salt string
}

// NewPasswordHasher creates a hasher with the configured salt.
func NewPasswordHasher(salt string) *PasswordHasher {
	return &PasswordHasher{salt: salt}
}

// Hash returns the hex-encoded SHA-256 of password+salt.
func (h *PasswordHasher) Hash(password string) string {
	sum := sha256.Sum256([]byte(password + h.salt))
	return hex.EncodeToString(sum[:])
}
