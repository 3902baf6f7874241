package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashKey hashes a plaintext invitation key with bcrypt. Only the hash is
// ever persisted.
func HashKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	return string(bytes), err
}

// CheckKey compares a plaintext key against a bcrypt hash.
func CheckKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// GenerateRandomString produces a cryptographically random base64url string of n bytes.
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateInviteKey generates a random one-time invitation secret
// (32 bytes = 43 chars base64url).
func GenerateInviteKey() (string, error) {
	return GenerateRandomString(32)
}

// BcryptHasher adapts the package functions to the engine's hashing
// capability.
type BcryptHasher struct{}

func (BcryptHasher) Hash(plaintext string) (string, error) { return HashKey(plaintext) }

func (BcryptHasher) Verify(plaintext, hash string) bool { return CheckKey(plaintext, hash) }
