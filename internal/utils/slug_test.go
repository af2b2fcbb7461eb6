package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"Acme Inc", "acme-inc"},
		{"  Acme   Inc  ", "acme-inc"},
		{"Alice's Organization", "alice-s-organization"},
		{"ACME!!!", "acme"},
		{"---", "org"},
		{"", "org"},
		{"Café 42", "caf-42"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, Slugify(c.input), "input %q", c.input)
	}
}

func TestSlugWithSuffix(t *testing.T) {
	withSuffix, err := SlugWithSuffix("acme-inc")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(withSuffix, "acme-inc-"))
	require.Len(t, withSuffix, len("acme-inc-")+6)

	other, err := SlugWithSuffix("acme-inc")
	require.NoError(t, err)
	require.NotEqual(t, withSuffix, other)
}
