package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
	slugTrimDash = regexp.MustCompile(`^-+|-+$`)
)

// Slugify converts a name into its deterministic kebab-case slug.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugTrimDash.ReplaceAllString(s, "")
	if s == "" {
		s = "org"
	}
	return s
}

// SlugWithSuffix appends a short random hex suffix, used when the bare slug
// is already taken.
func SlugWithSuffix(slug string) (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", slug, hex.EncodeToString(bytes)), nil
}
