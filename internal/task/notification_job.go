package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
)

// ImmediateNotifier runs the single-task notification path.
type ImmediateNotifier interface {
	Today() domain.Date
	NotifyTask(ctx context.Context, user domain.User, task domain.Task, day domain.Date) (bool, error)
}

// ImmediateNotificationJob delivers the immediate notification for one
// task in the background.
type ImmediateNotificationJob struct {
	id       uuid.UUID
	notifier ImmediateNotifier
	user     domain.User
	task     domain.Task
	day      domain.Date
}

// NewImmediateNotificationJob captures the arguments of a NotifyTask call.
func NewImmediateNotificationJob(
	notifier ImmediateNotifier,
	user domain.User,
	task domain.Task,
	day domain.Date,
) *ImmediateNotificationJob {
	return &ImmediateNotificationJob{
		id:       uuid.New(),
		notifier: notifier,
		user:     user,
		task:     task,
		day:      day,
	}
}

// ID implements Job.
func (j *ImmediateNotificationJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *ImmediateNotificationJob) Type() string { return JobTypeImmediateNotification }

// Execute implements Job.
func (j *ImmediateNotificationJob) Execute(ctx context.Context) error {
	if _, err := j.notifier.NotifyTask(ctx, j.user, j.task, j.day); err != nil {
		return fmt.Errorf("immediate notification for task %s: %w", j.task.ID, err)
	}
	return nil
}

// AsyncNotifier satisfies ImmediateNotifier by queueing the work for the
// worker pool instead of running it on the caller's goroutine.
type AsyncNotifier struct {
	next   ImmediateNotifier
	queue  JobQueueWriter
	logger *slog.Logger
}

// NewAsyncNotifier wraps next so that NotifyTask only enqueues a job.
func NewAsyncNotifier(next ImmediateNotifier, queue JobQueueWriter, logger *slog.Logger) *AsyncNotifier {
	return &AsyncNotifier{next: next, queue: queue, logger: logger}
}

// Today delegates to the wrapped notifier.
func (a *AsyncNotifier) Today() domain.Date {
	return a.next.Today()
}

// NotifyTask enqueues the notification. It reports false because the
// delivery outcome is not known yet; a full or closed queue is returned as
// an error.
func (a *AsyncNotifier) NotifyTask(
	_ context.Context,
	user domain.User,
	task domain.Task,
	day domain.Date,
) (bool, error) {
	job := NewImmediateNotificationJob(a.next, user, task, day)
	if err := a.queue.Enqueue(job); err != nil {
		a.logger.Warn("dropping immediate notification",
			"task_id", task.ID,
			"error", err)
		return false, err
	}
	return false, nil
}
