package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskflow/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to status codes.
var (
	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// account as well as for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflictingDueDate is returned when an update both sets and clears
	// the due date.
	ErrConflictingDueDate = errors.New("due_date and clear_due_date are mutually exclusive")
)

// TaskServiceError is a custom error type for task service errors.
type TaskServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// asValidationError attaches the offending field to the domain's entity
// validation sentinels. Other errors are returned unchanged.
func asValidationError(err error) error {
	var field, message string
	switch {
	case errors.Is(err, domain.ErrEmptyTaskTitle):
		field, message = "title", "cannot be empty"
	case errors.Is(err, domain.ErrTaskTitleTooLong):
		field, message = "title", "must be at most 200 characters long"
	case errors.Is(err, domain.ErrInvalidPriority):
		field, message = "priority", "must be one of low, medium, high"
	case errors.Is(err, domain.ErrEmptyUsername):
		field, message = "username", "cannot be empty"
	case errors.Is(err, domain.ErrUsernameTooLong):
		field, message = "username", "must be at most 80 characters long"
	case errors.Is(err, domain.ErrEmptyEmail):
		field, message = "email", "cannot be empty"
	case errors.Is(err, domain.ErrInvalidEmail):
		field, message = "email", "is not a valid address"
	case errors.Is(err, domain.ErrPasswordTooShort):
		field, message = "password", "must be at least 8 characters long"
	case errors.Is(err, domain.ErrPasswordTooLong):
		field, message = "password", "must be at most 72 characters long"
	case errors.Is(err, domain.ErrEmptyPassword):
		field, message = "password", "cannot be empty"
	default:
		return err
	}
	return domain.NewValidationError(field, message, err)
}
