package notify

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeTask(title string, priority domain.Priority, due domain.Date) domain.Task {
	return domain.Task{ID: uuid.New(), UserID: uuid.New(), Title: title, Priority: priority, DueDate: &due}
}

func TestComposer_Pluralization(t *testing.T) {
	t.Parallel()
	c, err := NewComposer()
	require.NoError(t, err)

	report := composeTask("Quarterly report", domain.PriorityHigh, testToday)
	slides := composeTask("Slides", domain.PriorityLow, testToday)

	single, err := c.Compose(domain.KindDueToday, []domain.Task{report}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "🚨 Tasks Due Today - 1 Task", single.Subject)
	assert.Equal(t, "Tasks Due Today", single.Title)
	assert.Equal(t, "Hi alice, you have 1 task due today:", single.Intro)
	assert.Contains(t, single.Body, "Quarterly report")

	many, err := c.Compose(domain.KindDueToday, []domain.Task{report, slides}, "alice")
	require.NoError(t, err)
	assert.Equal(t, "🚨 Tasks Due Today - 2 Tasks", many.Subject)
	assert.Equal(t, "Hi alice, you have 2 tasks due today:", many.Intro)
	assert.Contains(t, many.Body, "Quarterly report")
	assert.Contains(t, many.Body, "Slides")
	assert.Less(t, strings.Index(many.Body, "Quarterly report"), strings.Index(many.Body, "Slides"))
}

func TestComposer_Kinds(t *testing.T) {
	t.Parallel()
	c, err := NewComposer()
	require.NoError(t, err)

	tests := []struct {
		kind    domain.NotificationKind
		count   int
		subject string
		title   string
		intro   string
	}{
		{domain.KindDueToday, 3, "🚨 Tasks Due Today - 3 Tasks", "Tasks Due Today", "Hi bob, you have 3 tasks due today:"},
		{domain.KindDueTomorrow, 1, "⏰ Tasks Due Tomorrow - 1 Task", "Tasks Due Tomorrow", "Hi bob, you have 1 task due tomorrow:"},
		{domain.KindDueTomorrow, 2, "⏰ Tasks Due Tomorrow - 2 Tasks", "Tasks Due Tomorrow", "Hi bob, you have 2 tasks due tomorrow:"},
		{domain.KindOverdue, 1, "❗ Overdue Tasks - 1 Task", "Overdue Tasks", "Hi bob, you have 1 overdue task:"},
		{domain.KindOverdue, 4, "❗ Overdue Tasks - 4 Tasks", "Overdue Tasks", "Hi bob, you have 4 overdue tasks:"},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			tasks := make([]domain.Task, tc.count)
			for i := range tasks {
				tasks[i] = composeTask("t", domain.PriorityMedium, testToday)
			}
			content, err := c.Compose(tc.kind, tasks, "bob")
			require.NoError(t, err)
			assert.Equal(t, tc.subject, content.Subject)
			assert.Equal(t, tc.title, content.Title)
			assert.Equal(t, tc.intro, content.Intro)
			assert.Contains(t, content.Body, "<title>"+tc.title+"</title>")
			assert.Contains(t, content.Body, tc.intro)
		})
	}

	_, err = c.Compose("weekly", nil, "bob")
	assert.Error(t, err)
}

func TestComposer_TaskLines(t *testing.T) {
	t.Parallel()
	c, err := NewComposer()
	require.NoError(t, err)

	tasks := []domain.Task{
		composeTask("low one", domain.PriorityLow, domain.NewDate(2026, 3, 5)),
		composeTask("medium one", domain.PriorityMedium, domain.NewDate(2026, 3, 6)),
		composeTask("high one", domain.PriorityHigh, domain.NewDate(2026, 12, 25)),
	}
	content, err := c.Compose(domain.KindOverdue, tasks, "carol")
	require.NoError(t, err)

	for _, want := range []string{
		"border-left: 4px solid #4facfe",
		"border-left: 4px solid #43e97b",
		"border-left: 4px solid #fa709a",
		"Low Priority",
		"Medium Priority",
		"High Priority",
		"March 05, 2026",
		"March 06, 2026",
		"December 25, 2026",
		"📋 TaskFlow",
		"Stay organized and productive with TaskFlow!",
	} {
		assert.Contains(t, content.Body, want)
	}
}

func TestComposer_EscapesUserContent(t *testing.T) {
	t.Parallel()
	c, err := NewComposer()
	require.NoError(t, err)

	task := composeTask("<script>alert(1)</script>", domain.PriorityHigh, testToday)
	content, err := c.Compose(domain.KindDueToday, []domain.Task{task}, "<b>mallory</b>")
	require.NoError(t, err)

	assert.NotContains(t, content.Body, "<script>")
	assert.NotContains(t, content.Body, "<b>mallory</b>")
	assert.Contains(t, content.Body, "&lt;script&gt;")
}

func TestInAppTexts(t *testing.T) {
	t.Parallel()

	title, message := BatchInAppText(domain.KindDueToday, 1)
	assert.Equal(t, "🚨 1 Task Due Today", title)
	assert.Equal(t, "You have 1 task due today!", message)

	title, message = BatchInAppText(domain.KindDueTomorrow, 2)
	assert.Equal(t, "⏰ 2 Tasks Due Tomorrow", title)
	assert.Equal(t, "You have 2 tasks due tomorrow!", message)

	title, message = BatchInAppText(domain.KindOverdue, 3)
	assert.Equal(t, "❗ 3 Overdue Tasks", title)
	assert.Equal(t, "You have 3 overdue tasks!", message)

	title, message = ImmediateInAppText(domain.KindDueToday, "Pay rent")
	assert.Equal(t, "🚨 New Task Due Today", title)
	assert.Equal(t, `Task "Pay rent" is due today!`, message)

	title, message = ImmediateInAppText(domain.KindDueTomorrow, "Pay rent")
	assert.Equal(t, "⏰ New Task Due Tomorrow", title)
	assert.Equal(t, `Task "Pay rent" is due tomorrow!`, message)

	title, message = ImmediateInAppText(domain.KindOverdue, "Pay rent")
	assert.Equal(t, "❗ New Overdue Task", title)
	assert.Equal(t, `Task "Pay rent" is already overdue!`, message)

	title, message = CompletedInAppText("Pay rent")
	assert.Equal(t, "🎉 Task Completed!", title)
	assert.Equal(t, `Great job! You completed "Pay rent"`, message)

	title, message = DeletedInAppText("Pay rent")
	assert.Equal(t, "🗑️ Task Deleted", title)
	assert.Equal(t, `Task "Pay rent" has been permanently deleted`, message)
}
