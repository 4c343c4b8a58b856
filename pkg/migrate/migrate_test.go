package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:migrate_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestUpCreatesLibraryTablesOnSQLite(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(context.Background(), db, goose.DialectSQLite3))

	for _, table := range []string{"users", "books", "borrow_records"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	// re-running is a no-op
	require.NoError(t, Up(context.Background(), db, goose.DialectSQLite3))
}

func TestSQLiteSchemaEnforcesCopyBounds(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(context.Background(), db, goose.DialectSQLite3))

	_, err := db.Exec(`INSERT INTO books (id, title, author, category, total_copies, available_copies) VALUES (?, 'Dune', 'Herbert', 'Fiction', 1, 2)`, uuid.NewString())
	require.Error(t, err, "available copies above total must be rejected")

	_, err = db.Exec(`INSERT INTO books (id, title, author, category, total_copies, available_copies) VALUES (?, 'Dune', 'Herbert', 'Fiction', 1, -1)`, uuid.NewString())
	require.Error(t, err, "negative available copies must be rejected")
}

func TestRunStatusAndVersion(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	var out strings.Builder
	require.NoError(t, Run(ctx, db, goose.DialectSQLite3, "status", &out))
	assert.Contains(t, out.String(), "pending")

	require.NoError(t, MigrateToVersion(ctx, db, goose.DialectSQLite3, "20250301090100"))
	out.Reset()
	require.NoError(t, Run(ctx, db, goose.DialectSQLite3, "status", &out))
	assert.Contains(t, out.String(), "20250301090200_create_borrow_records.sql")
	assert.Contains(t, out.String(), "20250310090000_add_fine_override.sql")
	assert.Equal(t, 2, strings.Count(out.String(), "pending"))

	require.Error(t, Run(ctx, db, goose.DialectSQLite3, "redo", nil))
	require.Error(t, MigrateToVersion(ctx, db, goose.DialectSQLite3, "latest"))
}

func TestPostgresMigrationsCarryInventoryConstraints(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
	sub, err := fs.Sub(embedded, "migrations")
	require.NoError(t, err)
	require.NoError(t, ValidateFS(sub), "embedded migrations must stay in dialect parity")

	data, err := os.ReadFile(filepath.Join("migrations", "postgres", "20250301090100_create_books.sql"))
	require.NoError(t, err)
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS books",
		"CHECK (available_copies >= 0 AND available_copies <= total_copies)",
		"DROP TABLE IF EXISTS books",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestCreateSQLMigrationWritesEveryDialect(t *testing.T) {
	root := t.TempDir()
	paths, err := CreateSQLMigration(root, "Add Fine Payments!")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Base(paths[0]), filepath.Base(paths[1]))
	assert.True(t, strings.HasSuffix(paths[0], "_add_fine_payments.sql"))
	assert.Contains(t, paths[0], filepath.Join(root, "postgres"))
	assert.Contains(t, paths[1], filepath.Join(root, "sqlite"))
	require.NoError(t, ValidateDir(root))

	_, err = CreateSQLMigration(root, "!!!")
	require.Error(t, err)
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"postgres", "sqlite"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	write := func(dialect, name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(root, dialect, name), []byte(body), 0o644))
	}
	write("postgres", "20250101000000_a.sql", good)
	write("postgres", "bad-name.sql", good)
	write("sqlite", "20250101000000_a.sql", "-- +goose Up\nSELECT 1;\n")

	err := ValidateDir(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
	assert.Contains(t, err.Error(), "missing")
}

func TestValidateDirRequiresDialectParity(t *testing.T) {
	root := t.TempDir()
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	for _, d := range []string{"postgres", "sqlite"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, d, "20250101000000_a.sql"), []byte(good), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "postgres", "20250102000000_b.sql"), []byte(good), 0o644))

	err := ValidateDir(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}
