package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbbridge/pkg/database"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register openers so dialect validation can consult the registry
	_ "github.com/leapstack-labs/dbbridge/pkg/database/postgres"
	_ "github.com/leapstack-labs/dbbridge/pkg/database/sqlite"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dialect", "", "")
	flags.String("database", "", "")
	flags.String("dsn", "", "")
	flags.String("timestamp-format", "", "")
	flags.String("migrations-dir", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	return flags
}

func TestTargetConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		target    TargetConfig
		errSubstr string
	}{
		{name: "empty dialect", target: TargetConfig{}, errSubstr: "target dialect is required"},
		{name: "sqlite", target: TargetConfig{Dialect: "sqlite"}},
		{name: "libsql", target: TargetConfig{Dialect: "libsql"}},
		{name: "postgresql uppercase", target: TargetConfig{Dialect: "PostgreSQL"}},
		{name: "mysql", target: TargetConfig{Dialect: "mysql"}, errSubstr: "unknown database dialect"},
		{name: "postgres alias", target: TargetConfig{Dialect: "postgres"}, errSubstr: "unknown database dialect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestTargetConfig_ToDatabaseConfig(t *testing.T) {
	target := TargetConfig{
		Dialect:  "POSTGRESQL",
		Host:     "db.internal",
		Port:     6543,
		Database: "app",
		User:     "svc",
		Password: "secret",
		Options:  map[string]string{"sslmode": "disable"},
	}

	got := target.ToDatabaseConfig()
	assert.Equal(t, database.Config{
		Dialect:  database.DialectPostgreSQL,
		Host:     "db.internal",
		Port:     6543,
		Database: "app",
		Username: "svc",
		Password: "secret",
		Options:  map[string]string{"sslmode": "disable"},
	}, got)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	res, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, res.File)

	cfg := res.Config
	assert.Equal(t, "sqlite", cfg.Target.Dialect)
	assert.Equal(t, DefaultTimestampFormat, cfg.TimestampFormat)
	assert.Equal(t, DefaultMigrationsDir, cfg.MigrationsDir)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.False(t, cfg.Verbose)
}

func TestLoad_FileEnvFlagsPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
target:
  dialect: postgresql
  host: localhost
  database: app
  user: ${DBBRIDGE_TEST_USER}
  password: ${DBBRIDGE_TEST_UNSET}
timestamp_format: unixepoch-ms
migrations_dir: db/migrations
output: json
`)
	t.Setenv("DBBRIDGE_TEST_USER", "alice")
	t.Setenv("DBBRIDGE_TARGET_HOST", "db.example.com")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--output", "csv"}))

	res, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, path, res.File)

	cfg := res.Config
	assert.Equal(t, "postgresql", cfg.Target.Dialect)
	assert.Equal(t, "db.example.com", cfg.Target.Host, "env overrides file")
	assert.Equal(t, DefaultPostgresPort, cfg.Target.Port)
	assert.Equal(t, "alice", cfg.Target.User)
	assert.Equal(t, "${DBBRIDGE_TEST_UNSET}", cfg.Target.Password, "unset variables are kept")
	assert.Equal(t, "unixepoch-ms", cfg.TimestampFormat)
	assert.Equal(t, filepath.Join(dir, "db/migrations"), cfg.MigrationsDir)
	assert.Equal(t, "csv", cfg.Output, "flag overrides file")
}

func TestLoad_FlagMapping(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{
		"--dialect", "libsql",
		"--database", "replica.db",
		"--timestamp-format", "iso8601",
		"-v",
	}))

	res, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "libsql", res.Config.Target.Dialect)
	assert.Equal(t, "replica.db", res.Config.Target.Path)
	assert.True(t, res.Config.Verbose)
}

func TestLoad_FindsFileUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "target:\n  dialect: libsql\n  path: edge.db\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	res, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, filepath.Base(res.File))
	assert.Equal(t, "edge.db", res.Config.Target.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		errSubstr string
	}{
		{"unknown dialect", "target:\n  dialect: oracle\n", "unknown database dialect"},
		{"unknown timestamp format", "timestamp_format: rfc2822\n", "unknown timestamp format: rfc2822"},
		{"bad yaml", "target: [\n", "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(path, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DBBRIDGE_TEST_HOST", "pg")

	assert.Equal(t, "postgres://pg:5432/app", expandEnvVars("postgres://${DBBRIDGE_TEST_HOST}:5432/app"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
	assert.Equal(t, "${NOPE_NOT_SET_ANYWHERE}", expandEnvVars("${NOPE_NOT_SET_ANYWHERE}"))
}
