package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskflow/internal/config"
	"github.com/phrazzld/taskflow/internal/platform/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqlstore.Open(ctx, config.DatabaseConfig{Driver: sqlstore.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var out bytes.Buffer
	require.NoError(t, handleMigrations(ctx, db.DB, sqlstore.DriverSQLite, "status", log, &out))
	assert.Contains(t, out.String(), "pending")
	assert.NotContains(t, out.String(), "applied")

	require.NoError(t, handleMigrations(ctx, db.DB, sqlstore.DriverSQLite, "up", log, &out))

	out.Reset()
	require.NoError(t, handleMigrations(ctx, db.DB, sqlstore.DriverSQLite, "status", log, &out))
	assert.Contains(t, out.String(), "applied")
	assert.Contains(t, out.String(), "00001_init.sql")

	require.NoError(t, handleMigrations(ctx, db.DB, sqlstore.DriverSQLite, "down", log, &out))

	err = handleMigrations(ctx, db.DB, sqlstore.DriverSQLite, "sideways", log, &out)
	assert.ErrorContains(t, err, "unknown migration command")
}
