package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestCreateThenValidate(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, fileCommands["create"](flags{dir: root, name: "add fine waivers"}, &out))
	require.Contains(t, out.String(), "created migration:")

	entries, err := os.ReadDir(filepath.Join(root, "sqlite"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out.Reset()
	require.NoError(t, fileCommands["validate"](flags{dir: root}, &out))
	require.Contains(t, out.String(), "passed")
}

func TestCreateRequiresName(t *testing.T) {
	require.Error(t, fileCommands["create"](flags{dir: t.TempDir()}, &bytes.Buffer{}))
}

func TestUnknownCommand(t *testing.T) {
	require.ErrorContains(t, run(flags{cmd: "redo"}), "unknown -cmd value")
}

func TestVersionRequiresTarget(t *testing.T) {
	require.Error(t, dbCommands["version"](context.Background(), nil, goose.DialectSQLite3, flags{}, nil))
}
