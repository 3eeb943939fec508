package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/testdb"
)

// newTestDB returns a migrated database: in-memory SQLite, or a scratch
// PostgreSQL schema when a test database URL is configured.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return testdb.Open(t).DB
}

func mustCreateUser(t *testing.T, db *sqlx.DB, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "password123")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$hashedpasswordplaceholder"
	user.Password = ""
	require.NoError(t, NewUserStore(db, nil).Create(context.Background(), user))
	return user
}

func mustCreateTask(
	t *testing.T,
	db *sqlx.DB,
	user *domain.User,
	title string,
	due *domain.Date,
) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(user.ID, title, "", due, domain.PriorityHigh)
	require.NoError(t, err)
	require.NoError(t, NewTaskStore(db, nil).Create(context.Background(), task))
	return task
}

func datePtr(d domain.Date) *domain.Date {
	return &d
}

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
