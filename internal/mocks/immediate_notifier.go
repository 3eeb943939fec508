package mocks

import (
	"context"

	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockImmediateNotifier is a testify mock of the single-task notification path
type MockImmediateNotifier struct {
	mock.Mock
	Day domain.Date
}

// Today returns the configured Day
func (m *MockImmediateNotifier) Today() domain.Date {
	return m.Day
}

// NotifyTask records the call
func (m *MockImmediateNotifier) NotifyTask(
	ctx context.Context,
	user domain.User,
	task domain.Task,
	day domain.Date,
) (bool, error) {
	args := m.Called(ctx, user, task, day)
	return args.Bool(0), args.Error(1)
}
