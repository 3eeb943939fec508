package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPreferences(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	prefs := DefaultPreferences(userID)

	assert.Equal(t, userID, prefs.UserID)
	assert.True(t, prefs.EmailEnabled)
	assert.True(t, prefs.DueTodayEnabled)
	assert.True(t, prefs.DueTomorrowEnabled)
	assert.True(t, prefs.OverdueEnabled)
	assert.Equal(t, 24, prefs.ReminderHours)
	assert.NoError(t, prefs.Validate())
}

func TestPreferencesAllows(t *testing.T) {
	t.Parallel()

	prefs := DefaultPreferences(uuid.New())
	for _, kind := range AllKinds {
		assert.True(t, prefs.Allows(kind), kind)
	}

	prefs.DueTomorrowEnabled = false
	assert.True(t, prefs.Allows(KindDueToday))
	assert.False(t, prefs.Allows(KindDueTomorrow))

	prefs.EmailEnabled = false
	for _, kind := range AllKinds {
		assert.False(t, prefs.Allows(kind), kind)
	}

	assert.False(t, DefaultPreferences(uuid.New()).Allows(NotificationKind("weekly")))
}

func TestPreferencesValidate(t *testing.T) {
	t.Parallel()

	prefs := DefaultPreferences(uuid.New())
	prefs.ReminderHours = 0
	assert.ErrorIs(t, prefs.Validate(), ErrInvalidReminderHours)
	prefs.ReminderHours = 169
	assert.ErrorIs(t, prefs.Validate(), ErrInvalidReminderHours)
	prefs.ReminderHours = 168
	assert.NoError(t, prefs.Validate())

	prefs.UserID = uuid.Nil
	assert.ErrorIs(t, prefs.Validate(), ErrEmptyUserID)
}

func TestLogKinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LogKind("overdue"), KindOverdue.LogKind())
	assert.Equal(t, LogKind("immediate_due_today"), KindDueToday.ImmediateLogKind())
	assert.True(t, KindDueTomorrow.Valid())
	assert.False(t, NotificationKind("").Valid())
}

func TestNewLogEntry(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	sent := NewLogEntry(uuid.New(), uuid.New(), KindDueToday.LogKind(), DeliverySent, "", at)
	if assert.NotNil(t, sent.SentAt) {
		assert.True(t, sent.SentAt.Equal(at))
		assert.Equal(t, time.UTC, sent.SentAt.Location())
	}

	failed := NewLogEntry(uuid.New(), uuid.New(), KindDueToday.LogKind(), DeliveryFailed, DeliveryErrorEmailFailed, at)
	assert.Nil(t, failed.SentAt)
	assert.Equal(t, "Email sending failed", failed.Error)
}

func TestSeverityFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SeverityWarning, SeverityFor(KindOverdue))
	assert.Equal(t, SeverityInfo, SeverityFor(KindDueToday))
	assert.Equal(t, SeverityInfo, SeverityFor(KindDueTomorrow))
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	due := NewDate(2024, 1, 1)
	task, err := NewTask(uuid.New(), " Write report ", "", &due, "")
	if assert.NoError(t, err) {
		assert.Equal(t, "Write report", task.Title)
		assert.Equal(t, PriorityMedium, task.Priority)
		assert.False(t, task.Completed)
		assert.True(t, task.HasDueDate())
	}

	_, err = NewTask(uuid.New(), "  ", "", nil, PriorityLow)
	assert.ErrorIs(t, err, ErrEmptyTaskTitle)

	_, err = NewTask(uuid.New(), strings.Repeat("t", 201), "", nil, PriorityLow)
	assert.ErrorIs(t, err, ErrTaskTitleTooLong)

	_, err = NewTask(uuid.New(), "x", "", nil, Priority("urgent"))
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = NewTask(uuid.Nil, "x", "", nil, PriorityHigh)
	assert.ErrorIs(t, err, ErrEmptyTaskUserID)

	noDue, err := NewTask(uuid.New(), "x", "", nil, PriorityHigh)
	if assert.NoError(t, err) {
		assert.False(t, noDue.HasDueDate())
	}
}

func TestTaskIDs(t *testing.T) {
	t.Parallel()

	a, b := Task{ID: uuid.New()}, Task{ID: uuid.New()}
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, TaskIDs([]Task{a, b}))
	assert.Empty(t, TaskIDs(nil))
}
