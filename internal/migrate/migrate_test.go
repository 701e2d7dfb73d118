package migrate

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/leapstack-labs/dbbridge/internal/testutil"
	"github.com/leapstack-labs/dbbridge/pkg/database"
	_ "github.com/leapstack-labs/dbbridge/pkg/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMigrations = fstest.MapFS{
	"migrations/00001_users.sql": {Data: []byte(`-- +goose Up
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);

-- +goose Down
DROP TABLE users;
`)},
	"migrations/00002_posts.sql": {Data: []byte(`-- +goose Up
CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id));

-- +goose Down
DROP TABLE posts;
`)},
}

func openSQLite(t *testing.T) database.Database {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Dialect: database.DialectSQLite,
		Path:    filepath.Join(t.TempDir(), "migrate.db"),
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Dispose() })
	return db
}

func tableCount(t *testing.T, db database.Database) int64 {
	t.Helper()
	rows, err := db.Prepare(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'posts')",
	).All(context.Background())
	require.NoError(t, err)
	require.Len(t, rows.Values, 1)
	return rows.Values[0][0].(int64)
}

func TestMigrator_UpDownVersion(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	m, err := ForDatabase(db, testMigrations, "migrations", testutil.NewTestLogger(t))
	require.NoError(t, err)

	require.NoError(t, m.Up(ctx))
	v, err := m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Equal(t, int64(2), tableCount(t, db))

	// Up is idempotent.
	require.NoError(t, m.Up(ctx))

	require.NoError(t, m.Down(ctx))
	v, err = m.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, int64(1), tableCount(t, db))
}

func TestMigrator_BrokenMigration(t *testing.T) {
	db := openSQLite(t)
	broken := fstest.MapFS{
		"m/00001_bad.sql": {Data: []byte("-- +goose Up\nCREATE TABLE (;\n")},
	}

	m, err := ForDatabase(db, broken, "m", nil)
	require.NoError(t, err)

	err = m.Up(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run migrations")
}

func TestGooseDialect(t *testing.T) {
	tests := []struct {
		dialect  database.Dialect
		expected string
		wantErr  bool
	}{
		{database.DialectPostgreSQL, "postgres", false},
		{database.DialectSQLite, "sqlite", false},
		{database.DialectLibSQL, "sqlite", false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			got, err := gooseDialect(tt.dialect)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
