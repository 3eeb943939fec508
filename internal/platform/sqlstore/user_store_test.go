package sqlstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/store"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db, nil)

	user := mustCreateUser(t, db, "alice")

	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, user.HashedPassword, byID.HashedPassword)
	assert.Empty(t, byID.Password)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserStore_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := NewUserStore(newTestDB(t), nil)

	_, err := users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserStore_Conflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserStore(db, nil)
	mustCreateUser(t, db, "alice")

	sameEmail, err := domain.NewUser("alice2", "alice@example.com", "password123")
	require.NoError(t, err)
	sameEmail.HashedPassword = "hash"
	err = users.Create(ctx, sameEmail)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.True(t, store.IsDuplicateError(err))

	sameName, err := domain.NewUser("alice", "other@example.com", "password123")
	require.NoError(t, err)
	sameName.HashedPassword = "hash"
	err = users.Create(ctx, sameName)
	assert.ErrorIs(t, err, store.ErrUsernameExists)
}

func TestUserStore_CreateRequiresHash(t *testing.T) {
	t.Parallel()
	users := NewUserStore(newTestDB(t), nil)

	user, err := domain.NewUser("bob", "bob@example.com", "password123")
	require.NoError(t, err)

	err = users.Create(context.Background(), user)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestUserStore_ListWithPendingTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	tasks := NewTaskStore(db, nil)

	withDue := mustCreateUser(t, db, "due")
	noDue := mustCreateUser(t, db, "nodue")
	allDone := mustCreateUser(t, db, "done")
	mustCreateUser(t, db, "empty")

	mustCreateTask(t, db, withDue, "report", datePtr(domain.NewDate(2026, 3, 10)))
	mustCreateTask(t, db, noDue, "someday", nil)
	done := mustCreateTask(t, db, allDone, "finished", datePtr(domain.NewDate(2026, 3, 10)))
	done.Completed = true
	require.NoError(t, tasks.Update(ctx, done))

	users, err := NewUserStore(db, nil).ListWithPendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, withDue.ID, users[0].ID)
}

func TestNewUserStore_NilDBPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewUserStore(nil, nil) })
}
