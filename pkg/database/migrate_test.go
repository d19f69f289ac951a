package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planner-api/migrations"
	"github.com/noah-isme/planner-api/pkg/config"
)

func TestEmbeddedMigrationsAreOrdered(t *testing.T) {
	entries, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, strings.HasPrefix(entries[0], "00001_"))

	for _, name := range entries {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "planner", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=planner sslmode=disable", dsn)
}
