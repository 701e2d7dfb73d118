package database

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownDialectError_Error(t *testing.T) {
	err := &UnknownDialectError{
		Dialect:   "oracle",
		Available: []Dialect{DialectPostgreSQL, DialectSQLite},
	}

	msg := err.Error()

	assert.Contains(t, msg, "oracle", "error should mention the unknown dialect")
	assert.Contains(t, msg, "postgresql", "error should list available dialects")
	assert.Contains(t, msg, "dbbridge.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	Register("test_dialect_internal", func(_ context.Context, _ Config, _ *slog.Logger) (Database, error) {
		return nil, nil
	})

	assert.True(t, IsRegistered("test_dialect_internal"))

	opener, ok := Get("test_dialect_internal")
	assert.True(t, ok)
	assert.NotNil(t, opener)
	assert.Contains(t, ListDialects(), Dialect("test_dialect_internal"))
}

func TestOpen_EmptyDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "database dialect not specified", err.Error())
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: "nonexistent"}, nil)
	require.Error(t, err)

	var unknownErr *UnknownDialectError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, Dialect("nonexistent"), unknownErr.Dialect)
}

func TestOpen_PassesLogger(t *testing.T) {
	var got *slog.Logger
	Register("test_dialect_logger", func(_ context.Context, _ Config, logger *slog.Logger) (Database, error) {
		got = logger
		return nil, nil
	})

	_, err := Open(context.Background(), Config{Dialect: "test_dialect_logger"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, got, "nil logger should be replaced with a discard logger")
}

func TestDialect(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		valid    bool
		embedded bool
	}{
		{DialectPostgreSQL, true, false},
		{DialectSQLite, true, true},
		{DialectLibSQL, true, true},
		{"mysql", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.dialect.Valid())
			assert.Equal(t, tt.embedded, tt.dialect.Embedded())
		})
	}

	assert.Len(t, Dialects(), 3)
}

func TestRows_ColumnNames(t *testing.T) {
	rows := &Rows{Columns: []Column{{Name: "id"}, {Name: "name"}}}
	assert.Equal(t, []string{"id", "name"}, rows.ColumnNames())
	assert.Empty(t, (&Rows{}).ColumnNames())
}
