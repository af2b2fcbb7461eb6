package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/google/uuid"
)

// GenerateOpaqueToken returns a random token for invites and password resets.
func GenerateOpaqueToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")[:48]
}

// GenerateAPIKey returns a raw API key in the format
// flame_{live|test}_{43-char base64url} along with its SHA-256 hex digest.
// The raw key is shown to the caller exactly once; only the digest is stored.
func GenerateAPIKey(mode string) (raw, digest string, err error) {
	secret := make([]byte, constants.APIKeySecretLen)
	if _, err := rand.Read(secret); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(secret)
	raw = fmt.Sprintf("%s_%s_%s", constants.APIKeyPrefix, mode, encoded)

	return raw, HashAPIKey(raw), nil
}

// HashAPIKey returns the SHA-256 hex digest used for key lookup and storage.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// LastN returns the final n characters of s, or s itself when shorter.
func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
