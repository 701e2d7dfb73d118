// Package main provides tests for the dbbridge CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/dbbridge/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with stdin and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dbbridge v")
	assert.Contains(t, out, "postgresql")
	assert.Contains(t, out, "sqlite")
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "", "--help")
	require.NoError(t, err)
	for _, expected := range []string{"query", "exec", "script", "classify", "migrate", "version"} {
		assert.Contains(t, out, expected)
	}
}

func TestEndToEnd_SQLite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	db := filepath.Join(dir, "e2e.db")
	target := []string{"--dialect", "sqlite", "--database", db}

	_, err := run(t, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, active BOOLEAN, joined DATETIME);
	`, append(target, "script")...)
	require.NoError(t, err)

	out, err := run(t, "", append(target,
		"exec", "INSERT INTO users (id, name, active, joined) VALUES (?, ?, ?, ?)",
		"--arg", "int:1", "--arg", "string:ada", "--arg", "boolean:true", "--arg", "datetime:2024-03-09 14:05:06",
	)...)
	require.NoError(t, err)
	assert.Equal(t, "1 rows affected\n", out)

	out, err = run(t, "", append(target,
		"query", "SELECT id, name, active, joined FROM users WHERE id = ?",
		"--arg", "int:1", "-o", "json", "--transaction",
	)...)
	require.NoError(t, err)

	var rs struct {
		ColumnNames []string `json:"columnNames"`
		ColumnTypes []int    `json:"columnTypes"`
		Rows        [][]any  `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rs))
	assert.Equal(t, []string{"id", "name", "active", "joined"}, rs.ColumnNames)
	assert.Equal(t, []int{0, 7, 5, 10}, rs.ColumnTypes)
	require.Len(t, rs.Rows, 1)
	require.Len(t, rs.Rows[0], 4)
	assert.Equal(t, []any{float64(1), "ada"}, rs.Rows[0][:2])
	assert.NotNil(t, rs.Rows[0][3])

	out, err = run(t, "", append(target, "query", "SELECT name FROM users", "-o", "csv")...)
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "ada")
}

func TestEndToEnd_IsolationLevelRejected(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := run(t, "", "--dialect", "sqlite", "--database", filepath.Join(dir, "x.db"),
		"query", "SELECT 1", "--transaction", "--isolation-level", "read committed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid isolation level: READ COMMITTED")
}

func TestClassifyCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "", "--dialect", "postgresql", "classify", "timestamptz", "VARCHAR(32)", "geometry")
	require.NoError(t, err)
	assert.Contains(t, out, "dialect: postgresql")
	assert.Contains(t, out, "DateTime")
	assert.Contains(t, out, "Text")
	assert.Contains(t, out, "unknown")
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	migrations := filepath.Join(dir, "migrations")
	require.NoError(t, os.MkdirAll(migrations, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(migrations, "00001_init.sql"), []byte(`-- +goose Up
CREATE TABLE accounts (id INTEGER PRIMARY KEY, balance DECIMAL);

-- +goose Down
DROP TABLE accounts;
`), 0o600))

	target := []string{"--dialect", "sqlite", "--database", filepath.Join(dir, "m.db"), "--migrations-dir", migrations}

	out, err := run(t, "", append(target, "migrate", "up")...)
	require.NoError(t, err)
	assert.Contains(t, out, "migration version: 1")

	out, err = run(t, "", append(target, "query", "SELECT id, balance FROM accounts", "-o", "json")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"columnTypes": [
    0,
    4
  ]`)

	out, err = run(t, "", append(target, "migrate", "down")...)
	require.NoError(t, err)
	assert.Contains(t, out, "migration version: 0")
}
