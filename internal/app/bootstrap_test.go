package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setSQLiteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	t.Setenv("LIBRARY_APP_ENV", "dev")
	t.Setenv("LIBRARY_APP_PORT", "8080")
	t.Setenv("LIBRARY_USE_SQLITE", "true")
	t.Setenv("LIBRARY_SQLITE_PATH", path)
	t.Setenv("LIBRARY_AUTO_MIGRATE", "true")
	t.Setenv("LIBRARY_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LIBRARY_JWT_SECRET", "secret")
	return path
}

func TestBootstrapOpensSQLiteAndMigrates(t *testing.T) {
	setSQLiteEnv(t)

	rt, err := Bootstrap(context.Background(), BootstrapOptions{ServiceKind: "app-test"})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rt.Close()) })

	require.Equal(t, "app-test", rt.Config.Service.Kind)
	require.Nil(t, rt.Redis)
	require.NoError(t, rt.DB.Ping(context.Background()))
	require.True(t, rt.DB.DB().Migrator().HasTable("books"))
	require.True(t, rt.DB.DB().Migrator().HasTable("borrow_records"))

	svcs, err := NewServices(rt.DB, nil, rt.Logger)
	require.NoError(t, err)
	_, err = svcs.Borrows.RefreshOverdue(context.Background())
	require.NoError(t, err)
}

func TestBootstrapRequiresServiceKind(t *testing.T) {
	_, err := Bootstrap(context.Background(), BootstrapOptions{})
	require.ErrorContains(t, err, "service kind")
}

func TestBootstrapReportsConfigErrors(t *testing.T) {
	setSQLiteEnv(t)
	require.NoError(t, os.Unsetenv("LIBRARY_APP_ENV"))

	rt, err := Bootstrap(context.Background(), BootstrapOptions{ServiceKind: "app-test"})
	require.ErrorContains(t, err, "load config")
	require.Nil(t, rt)
}

func TestRuntimeCloseIsNilSafe(t *testing.T) {
	var rt *Runtime
	require.NoError(t, rt.Close())
	require.NoError(t, (&Runtime{}).Close())
}
