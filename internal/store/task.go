package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskflow/internal/domain"
)

// TaskStore defines the interface for task persistence. Every read and
// write is scoped to the owning user.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the task is invalid or the user does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	// Returns ErrTaskNotFound if it does not exist or is owned by someone else.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// Update persists all mutable fields of the task.
	// Returns ErrTaskNotFound if it does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by userID.
	// Returns ErrTaskNotFound if it does not exist.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// ListByUser returns the user's tasks, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// ListOpenWithDueDate returns the user's incomplete tasks that carry a
	// due date, ordered by due date then creation time.
	ListOpenWithDueDate(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)

	// WithTx returns a TaskStore bound to the given transaction.
	WithTx(tx *sqlx.Tx) TaskStore
}
