package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDPrefersExplicitOverride(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("LIBRARY_INSTANCE_ID", "api-7")
	require.Equal(t, "api-7", ID())
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv("LIBRARY_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	require.Equal(t, "worker.2", ID())
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv("LIBRARY_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	require.NotEmpty(t, ID())
}
