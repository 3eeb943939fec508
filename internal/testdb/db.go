package testdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/phrazzld/taskflow/internal/platform/migrations"
)

// Timeout bounds setup and teardown statements.
const Timeout = 10 * time.Second

// Database is a migrated test database and the driver it uses.
type Database struct {
	*sqlx.DB
	Driver string
}

// Open returns a migrated database that is closed, and for PostgreSQL
// dropped, when the test ends.
func Open(t testing.TB) *Database {
	t.Helper()

	if url := DatabaseURL(); url != "" {
		return openPostgres(t, url)
	}
	if IsCI() {
		t.Logf("%s not set; using in-memory SQLite", EnvTestDatabaseURL)
	}
	return openSQLite(t)
}

func openSQLite(t testing.TB) *Database {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// each connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, db.DB, "sqlite", nil))

	return &Database{DB: db, Driver: "sqlite"}
}

func openPostgres(t testing.TB, url string) *Database {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	admin, err := sqlx.Open("pgx", url)
	require.NoError(t, err)
	require.NoError(t, admin.PingContext(ctx), "connect to %s", MaskURL(url))

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.ExecContext(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop test schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})

	scoped, err := withSearchPath(url, schema)
	require.NoError(t, err)

	db, err := sqlx.Open("pgx", scoped)
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db.DB, "pgx", nil), "migrate schema %s", schema)
	return &Database{DB: db, Driver: "pgx"}
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *Database, fn func(t *testing.T, tx *sqlx.Tx)) {
	t.Helper()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err, "begin test transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("rollback test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
