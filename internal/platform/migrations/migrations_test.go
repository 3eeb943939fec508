package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, Up(ctx, db, "sqlite", nil))

	statuses, err := List(ctx, db, "sqlite")
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %d should be applied", s.Version)
	}

	for _, table := range []string{
		"users", "tasks", "notification_preferences", "notification_log", "in_app_notifications",
	} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}

	// applying again is a no-op
	require.NoError(t, Up(ctx, db, "sqlite", nil))
}

func TestDown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, Up(ctx, db, "sqlite", nil))
	require.NoError(t, Down(ctx, db, "sqlite", nil))

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnsupportedDriver(t *testing.T) {
	t.Parallel()
	db := openSQLite(t)

	err := Up(context.Background(), db, "mysql", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported migration driver")
}
