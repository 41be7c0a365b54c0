package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// TokenBytes is the number of random bytes in a generated single-use token.
// 32 bytes gives 256 bits of entropy, which makes collisions and guessing
// equally hopeless without a uniqueness check against the store.
const TokenBytes = 32

// HashPassword returns a bcrypt hash of the supplied password. The salt is
// embedded in the digest, so the output differs between calls for the same input.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a stored bcrypt digest with a plaintext candidate.
// A malformed digest reports false the same way a mismatch does.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
