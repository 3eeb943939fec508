package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/store"
)

// DueSets holds one user's open tasks partitioned by due-date proximity.
// The three slices never share a task.
type DueSets struct {
	DueToday    []domain.Task
	DueTomorrow []domain.Task
	Overdue     []domain.Task
}

// ForKind returns the batch for kind.
func (s DueSets) ForKind(kind domain.NotificationKind) []domain.Task {
	switch kind {
	case domain.KindDueToday:
		return s.DueToday
	case domain.KindDueTomorrow:
		return s.DueTomorrow
	case domain.KindOverdue:
		return s.Overdue
	default:
		return nil
	}
}

// Total is the number of classified tasks across all kinds.
func (s DueSets) Total() int {
	return len(s.DueToday) + len(s.DueTomorrow) + len(s.Overdue)
}

// ClassifyTask reports which kind, if any, task falls into on today.
// Completed tasks and tasks without a due date never qualify.
func ClassifyTask(task domain.Task, today domain.Date) (domain.NotificationKind, bool) {
	if task.Completed || !task.HasDueDate() {
		return "", false
	}
	due := *task.DueDate
	switch {
	case due.Equal(today):
		return domain.KindDueToday, true
	case due.Equal(today.AddDays(1)):
		return domain.KindDueTomorrow, true
	case due.Before(today):
		return domain.KindOverdue, true
	default:
		return "", false
	}
}

// ClassifyTasks partitions tasks on today, keeping their input order
// within each set.
func ClassifyTasks(tasks []domain.Task, today domain.Date) DueSets {
	var sets DueSets
	for _, t := range tasks {
		kind, ok := ClassifyTask(t, today)
		if !ok {
			continue
		}
		switch kind {
		case domain.KindDueToday:
			sets.DueToday = append(sets.DueToday, t)
		case domain.KindDueTomorrow:
			sets.DueTomorrow = append(sets.DueTomorrow, t)
		case domain.KindOverdue:
			sets.Overdue = append(sets.Overdue, t)
		}
	}
	return sets
}

// Classifier loads a user's open tasks and classifies them.
type Classifier struct {
	tasks store.TaskStore
}

// NewClassifier creates a Classifier reading from tasks.
func NewClassifier(tasks store.TaskStore) *Classifier {
	if tasks == nil {
		panic("task store cannot be nil")
	}
	return &Classifier{tasks: tasks}
}

// Classify returns the due sets of userID on today. A user without tasks
// yields empty sets.
func (c *Classifier) Classify(ctx context.Context, userID uuid.UUID, today domain.Date) (DueSets, error) {
	tasks, err := c.tasks.ListOpenWithDueDate(ctx, userID)
	if err != nil {
		return DueSets{}, fmt.Errorf("list open tasks: %w", err)
	}
	return ClassifyTasks(tasks, today), nil
}
