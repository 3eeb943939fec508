package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/store"
)

func TestPreferenceStore_GetOrCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	prefs := NewPreferenceStore(db, nil)
	user := mustCreateUser(t, db, "alice")

	first, err := prefs.GetOrCreate(ctx, domain.DefaultPreferences(user.ID))
	require.NoError(t, err)
	assert.True(t, first.EmailEnabled)
	assert.True(t, first.DueTodayEnabled)
	assert.True(t, first.DueTomorrowEnabled)
	assert.True(t, first.OverdueEnabled)
	assert.Equal(t, domain.DefaultReminderHours, first.ReminderHours)

	first.EmailEnabled = false
	first.ReminderHours = 48
	first.UpdatedAt = testNow
	require.NoError(t, prefs.Update(ctx, first))

	// a second call must not reset the stored row
	second, err := prefs.GetOrCreate(ctx, domain.DefaultPreferences(user.ID))
	require.NoError(t, err)
	assert.False(t, second.EmailEnabled)
	assert.Equal(t, 48, second.ReminderHours)
	assert.True(t, second.UpdatedAt.Equal(testNow))
}

func TestPreferenceStore_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	prefs := NewPreferenceStore(db, nil)

	t.Run("missing row", func(t *testing.T) {
		p := domain.DefaultPreferences(uuid.New())
		err := prefs.Update(ctx, &p)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid reminder hours", func(t *testing.T) {
		p := domain.DefaultPreferences(uuid.New())
		p.ReminderHours = 0
		err := prefs.Update(ctx, &p)
		assert.ErrorIs(t, err, domain.ErrInvalidReminderHours)
	})
}

func TestNotificationLogStore_SentTaskIDs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	logs := NewNotificationLogStore(db, nil)
	user := mustCreateUser(t, db, "alice")
	today := datePtr(domain.NewDate(2026, 3, 10))
	a := mustCreateTask(t, db, user, "a", today)
	b := mustCreateTask(t, db, user, "b", today)
	c := mustCreateTask(t, db, user, "c", today)

	dayStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	appendEntry := func(taskID uuid.UUID, kind domain.LogKind, status domain.DeliveryStatus, at time.Time) {
		e := domain.NewLogEntry(user.ID, taskID, kind, status, "", at)
		require.NoError(t, logs.Append(ctx, &e))
	}

	appendEntry(a.ID, domain.KindDueToday.LogKind(), domain.DeliverySent, testNow)
	appendEntry(a.ID, domain.KindDueToday.LogKind(), domain.DeliverySent, testNow.Add(time.Hour))
	appendEntry(b.ID, domain.KindDueToday.LogKind(), domain.DeliveryFailed, testNow)
	appendEntry(c.ID, domain.KindDueToday.ImmediateLogKind(), domain.DeliverySent, testNow)
	appendEntry(c.ID, domain.KindDueToday.LogKind(), domain.DeliverySent, dayStart.Add(-time.Second))

	ids, err := logs.SentTaskIDs(ctx, store.SentQuery{
		UserID:  user.ID,
		TaskIDs: []uuid.UUID{a.ID, b.ID, c.ID},
		Kind:    domain.KindDueToday.LogKind(),
		From:    dayStart,
		To:      dayEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids)

	immediate, err := logs.SentTaskIDs(ctx, store.SentQuery{
		UserID:  user.ID,
		TaskIDs: []uuid.UUID{c.ID},
		Kind:    domain.KindDueToday.ImmediateLogKind(),
		From:    dayStart,
		To:      dayEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.ID}, immediate)

	empty, err := logs.SentTaskIDs(ctx, store.SentQuery{UserID: user.ID, Kind: domain.KindOverdue.LogKind()})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	count, err := logs.CountSentSince(ctx, user.ID, dayStart)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNotificationLogStore_ListByUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	logs := NewNotificationLogStore(db, nil)
	user := mustCreateUser(t, db, "alice")
	task := mustCreateTask(t, db, user, "a", nil)

	sent := domain.NewLogEntry(user.ID, task.ID, domain.KindOverdue.LogKind(), domain.DeliverySent, "", testNow)
	failed := domain.NewLogEntry(user.ID, task.ID, domain.KindOverdue.LogKind(), domain.DeliveryFailed,
		domain.DeliveryErrorEmailFailed, testNow.Add(time.Minute))
	require.NoError(t, logs.Append(ctx, &sent))
	require.NoError(t, logs.Append(ctx, &failed))

	entries, err := logs.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, failed.ID, entries[0].ID)
	assert.Equal(t, domain.DeliveryFailed, entries[0].Status)
	assert.Nil(t, entries[0].SentAt)
	assert.Equal(t, domain.DeliveryErrorEmailFailed, entries[0].Error)

	assert.Equal(t, sent.ID, entries[1].ID)
	require.NotNil(t, entries[1].SentAt)
	assert.True(t, entries[1].SentAt.Equal(testNow))
}

func TestNotificationLogStore_CascadeOnTaskDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	logs := NewNotificationLogStore(db, nil)
	user := mustCreateUser(t, db, "alice")
	task := mustCreateTask(t, db, user, "a", nil)

	entry := domain.NewLogEntry(user.ID, task.ID, domain.KindOverdue.LogKind(), domain.DeliverySent, "", testNow)
	require.NoError(t, logs.Append(ctx, &entry))
	require.NoError(t, NewTaskStore(db, nil).Delete(ctx, user.ID, task.ID))

	entries, err := logs.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInboxStore_ListAndMarkRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	inbox := NewInboxStore(db, nil)
	user := mustCreateUser(t, db, "alice")
	other := mustCreateUser(t, db, "bob")
	task := mustCreateTask(t, db, user, "a", nil)

	older := domain.NewInAppNotification(user.ID, "older", "first", domain.SeverityInfo, &task.ID, testNow)
	newer := domain.NewInAppNotification(user.ID, "newer", "second", domain.SeverityWarning, nil, testNow.Add(time.Minute))
	foreign := domain.NewInAppNotification(other.ID, "foreign", "x", domain.SeverityInfo, nil, testNow)
	for _, n := range []*domain.InAppNotification{&older, &newer, &foreign} {
		require.NoError(t, inbox.Create(ctx, n))
	}

	list, err := inbox.List(ctx, user.ID, true, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, domain.SeverityWarning, list[0].Severity)
	assert.Nil(t, list[0].TaskID)
	require.NotNil(t, list[1].TaskID)
	assert.Equal(t, task.ID, *list[1].TaskID)

	require.NoError(t, inbox.MarkRead(ctx, user.ID, older.ID))
	// marking twice succeeds
	require.NoError(t, inbox.MarkRead(ctx, user.ID, older.ID))

	unread, err := inbox.List(ctx, user.ID, true, 50)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, newer.ID, unread[0].ID)

	all, err := inbox.List(ctx, user.ID, false, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	limited, err := inbox.List(ctx, user.ID, false, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	count, err := inbox.CountUnread(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = inbox.MarkRead(ctx, user.ID, foreign.ID)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)

	err = inbox.MarkRead(ctx, user.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)
}

func TestInboxStore_TaskDeleteKeepsNotification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	inbox := NewInboxStore(db, nil)
	user := mustCreateUser(t, db, "alice")
	task := mustCreateTask(t, db, user, "a", nil)

	n := domain.NewInAppNotification(user.ID, "t", "m", domain.SeverityInfo, &task.ID, testNow)
	require.NoError(t, inbox.Create(ctx, &n))
	require.NoError(t, NewTaskStore(db, nil).Delete(ctx, user.ID, task.ID))

	list, err := inbox.List(ctx, user.ID, false, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].TaskID)
}
