package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken(t *testing.T) {
	token := GenerateOpaqueToken()
	require.Len(t, token, 48)
	require.NotEqual(t, token, GenerateOpaqueToken())
}

func TestGenerateAPIKey(t *testing.T) {
	raw, digest, err := GenerateAPIKey("live")
	require.NoError(t, err)

	require.Regexp(t, regexp.MustCompile(`^flame_live_[A-Za-z0-9_-]{43}$`), raw)
	require.Len(t, digest, 64)
	require.Equal(t, digest, HashAPIKey(raw))

	testRaw, _, err := GenerateAPIKey("test")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^flame_test_`), testRaw)
}

func TestLastN(t *testing.T) {
	require.Equal(t, "12345678", LastN("flame_live_xyz12345678", 8))
	require.Equal(t, "abc", LastN("abc", 8))
}
