package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/redact"
	"github.com/phrazzld/taskflow/internal/store"
)

// ImmediateNotifier runs the single-task notification path. It is
// satisfied by *notify.Dispatcher and by the queueing task.AsyncNotifier.
type ImmediateNotifier interface {
	Today() domain.Date
	NotifyTask(ctx context.Context, user domain.User, task domain.Task, day domain.Date) (bool, error)
}

// InboxWriter creates in-app notifications.
type InboxWriter interface {
	Create(
		ctx context.Context,
		userID uuid.UUID,
		title, message string,
		severity domain.Severity,
		taskID *uuid.UUID,
	) (*domain.InAppNotification, error)
}

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *domain.Date
	Priority    domain.Priority
}

// UpdateTaskInput is a partial update: nil fields are left untouched.
// ClearDueDate removes the due date and cannot be combined with DueDate.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DueDate      *domain.Date
	ClearDueDate bool
	Priority     *domain.Priority
	Completed    *bool
}

// TaskService provides task management operations
type TaskService interface {
	// Create stores a new task and runs the immediate notification path
	// when it has a due date.
	Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error)

	// Get returns one of the user's tasks.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// List returns the user's tasks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// Update applies a partial update. Moving the due date of an open task
	// runs the immediate path; completing it leaves an in-app notification.
	Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateTaskInput) (*domain.Task, error)

	// Delete removes the task and leaves an in-app notification.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

// TaskServiceDeps holds the collaborators of the task service. DB, Notifier
// and Inbox are optional.
type TaskServiceDeps struct {
	Tasks    store.TaskStore
	Users    store.UserStore
	DB       *sqlx.DB
	Notifier ImmediateNotifier
	Inbox    InboxWriter
	Logger   *slog.Logger
}

type taskServiceImpl struct {
	tasks    store.TaskStore
	users    store.UserStore
	db       *sqlx.DB
	notifier ImmediateNotifier
	inbox    InboxWriter
	logger   *slog.Logger
}

// NewTaskService creates a new TaskService
// It returns an error if any of the required dependencies are nil.
func NewTaskService(deps TaskServiceDeps) (TaskService, error) {
	if deps.Tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if deps.Users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		tasks:    deps.Tasks,
		users:    deps.Users,
		db:       deps.DB,
		notifier: deps.Notifier,
		inbox:    deps.Inbox,
		logger:   log.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, in.Title, in.Description, in.DueDate, in.Priority)
	if err != nil {
		return nil, NewTaskServiceError("create", "invalid task", asValidationError(err))
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))

	if task.HasDueDate() {
		s.notifyImmediate(ctx, *task)
	}
	return task, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, NewTaskServiceError("get", "failed to retrieve task", err)
	}
	return task, nil
}

func (s *taskServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	in UpdateTaskInput,
) (*domain.Task, error) {
	if in.DueDate != nil && in.ClearDueDate {
		return nil, NewTaskServiceError("update", "invalid update",
			domain.NewValidationError("due_date", ErrConflictingDueDate.Error(), ErrConflictingDueDate))
	}

	var (
		updated      *domain.Task
		dueChanged   bool
		completedNow bool
	)
	err := s.inTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		task, err := tasks.GetByID(ctx, userID, taskID)
		if err != nil {
			return err
		}

		wasCompleted := task.Completed
		previousDue := task.DueDate

		applyUpdate(task, in)
		if err := task.Validate(); err != nil {
			return asValidationError(err)
		}
		if err := tasks.Update(ctx, task); err != nil {
			return err
		}

		updated = task
		dueChanged = !sameDate(previousDue, task.DueDate)
		completedNow = !wasCompleted && task.Completed
		return nil
	})
	if err != nil {
		if !store.IsNotFoundError(err) && !domain.IsValidationError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, NewTaskServiceError("update", "failed to update task", err)
	}

	if completedNow {
		title, message := notify.CompletedInAppText(updated.Title)
		s.createInApp(ctx, userID, title, message, &updated.ID)
	}
	if dueChanged && !updated.Completed && updated.HasDueDate() {
		s.notifyImmediate(ctx, *updated)
	}
	return updated, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	var title string
	err := s.inTx(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		task, err := tasks.GetByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		title = task.Title
		return tasks.Delete(ctx, userID, taskID)
	})
	if err != nil {
		if !store.IsNotFoundError(err) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return NewTaskServiceError("delete", "failed to delete task", err)
	}

	heading, message := notify.DeletedInAppText(title)
	s.createInApp(ctx, userID, heading, message, nil)
	return nil
}

func applyUpdate(task *domain.Task, in UpdateTaskInput) {
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = strings.TrimSpace(*in.Description)
	}
	switch {
	case in.ClearDueDate:
		task.DueDate = nil
	case in.DueDate != nil:
		due := *in.DueDate
		task.DueDate = &due
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	task.UpdatedAt = time.Now().UTC()
}

func sameDate(a, b *domain.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// notifyImmediate hands the task to the immediate path. Failures are
// logged only.
func (s *taskServiceImpl) notifyImmediate(ctx context.Context, task domain.Task) {
	if s.notifier == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("task_id", task.ID.String()))

	user, err := s.users.GetByID(ctx, task.UserID)
	if err != nil {
		log.Error("failed to load task owner for immediate notification",
			slog.String("error", redact.Error(err)))
		return
	}

	if _, err := s.notifier.NotifyTask(ctx, *user, task, s.notifier.Today()); err != nil {
		log.Warn("immediate notification failed",
			slog.String("error", redact.Error(err)))
	}
}

func (s *taskServiceImpl) createInApp(ctx context.Context, userID uuid.UUID, title, message string, taskID *uuid.UUID) {
	if s.inbox == nil {
		return
	}
	if _, err := s.inbox.Create(ctx, userID, title, message, domain.SeverityInfo, taskID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to create in-app notification",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
	}
}

func (s *taskServiceImpl) inTx(ctx context.Context, fn func(ctx context.Context, tasks store.TaskStore) error) error {
	if s.db == nil {
		return fn(ctx, s.tasks)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, s.tasks.WithTx(tx))
	})
}
