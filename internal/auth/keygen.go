package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// APIKeyLen is the length of a generated key: 16 random bytes, hex encoded.
const APIKeyLen = 32

var apiKeyRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)

// GenerateAPIKey returns a new random API key.
// Keys are stored as issued because login hands them back to the owner.
func GenerateAPIKey() (string, error) {
	b := make([]byte, APIKeyLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidKeyFormat reports whether key looks like a generated API key.
func ValidKeyFormat(key string) bool {
	return apiKeyRegex.MatchString(key)
}

// Fingerprint derives a cache key from a secret so the secret itself is
// never written to Redis or logs.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:16])
}
