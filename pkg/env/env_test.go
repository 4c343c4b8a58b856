package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPrefersPrefixedKey(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LIBRARY_LOG_FORMAT", "json")
	require.Equal(t, "json", Get("LOG_FORMAT", "text"))
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("LIBRARY_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "")
	require.Equal(t, "text", Get("LOG_FORMAT", "text"))

	t.Setenv("LOG_FORMAT", "console")
	require.Equal(t, "console", Get("LOG_FORMAT", "text"))
}
