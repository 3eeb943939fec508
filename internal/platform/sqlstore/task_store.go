package sqlstore

import (
	"context"
	"database/sql/driver"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/platform/logger"
	"github.com/phrazzld/taskflow/internal/store"
)

// nullDate is a nullable DATE column.
type nullDate struct {
	Date  domain.Date
	Valid bool
}

func newNullDate(d *domain.Date) nullDate {
	if d == nil || d.IsZero() {
		return nullDate{}
	}
	return nullDate{Date: *d, Valid: true}
}

// Scan implements sql.Scanner.
func (n *nullDate) Scan(src any) error {
	if src == nil {
		*n = nullDate{}
		return nil
	}
	if err := n.Date.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n nullDate) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Date.Value()
}

func (n nullDate) ptr() *domain.Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

type taskRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     nullDate  `db:"due_date"`
	Priority    string    `db:"priority"`
	Completed   bool      `db:"completed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate.ptr(),
		Priority:    domain.Priority(r.Priority),
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func tasksFromRows(rows []taskRow) []domain.Task {
	tasks := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks
}

const taskColumns = `id, user_id, title, description, due_date, priority, completed, created_at, updated_at`

// TaskStore implements store.TaskStore.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. A nil logger means slog.Default().
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sqlx.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := s.db.Rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		newNullDate(task.DueDate),
		string(task.Priority),
		task.Completed,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var row taskRow
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if IsNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	task := row.toDomain()
	return &task, nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := s.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?, completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		newNullDate(task.DueDate),
		string(task.Priority),
		task.Completed,
		task.UpdatedAt.UTC(),
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// ListByUser implements store.TaskStore.ListByUser
func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id`)
	return s.selectTasks(ctx, "list_by_user", query, userID)
}

// ListOpenWithDueDate implements store.TaskStore.ListOpenWithDueDate
func (s *TaskStore) ListOpenWithDueDate(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	query := s.db.Rebind(`
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = ? AND completed = ? AND due_date IS NOT NULL
		ORDER BY due_date, created_at, id`)
	return s.selectTasks(ctx, "list_open_with_due_date", query, userID, false)
}

func (s *TaskStore) selectTasks(ctx context.Context, op, query string, args ...any) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error("failed to select tasks",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, store.NewStoreError("task", op, "query failed", MapError(err))
	}
	return tasksFromRows(rows), nil
}
