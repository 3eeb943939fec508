package task

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJob implements the Job interface for testing
type mockJob struct {
	id      uuid.UUID
	jobType string
	execFn  func(ctx context.Context) error
}

func (m *mockJob) ID() uuid.UUID {
	return m.id
}

func (m *mockJob) Type() string {
	return m.jobType
}

func (m *mockJob) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockJob() *mockJob {
	return &mockJob{
		id:      uuid.New(),
		jobType: "mock",
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewJobQueue(t *testing.T) {
	logger := setupTestLogger()

	queue := NewJobQueue(10, logger)
	require.NotNil(t, queue)
	assert.Equal(t, 10, cap(queue.jobs))
	assert.False(t, queue.closed)

	// Non-positive sizes still yield a usable queue
	queue = NewJobQueue(0, logger)
	assert.Equal(t, 1, cap(queue.jobs))
}

func TestEnqueue(t *testing.T) {
	queue := NewJobQueue(2, setupTestLogger())

	require.NoError(t, queue.Enqueue(newMockJob()))
	require.NoError(t, queue.Enqueue(newMockJob()))
	assert.Equal(t, 2, queue.Len())

	// Queue full
	job3 := newMockJob()
	err := queue.Enqueue(job3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)

	// Dequeue one item to make space
	<-queue.Channel()

	assert.NoError(t, queue.Enqueue(job3))
}

func TestClose(t *testing.T) {
	queue := NewJobQueue(10, setupTestLogger())

	job := newMockJob()
	require.NoError(t, queue.Enqueue(job))

	queue.Close()
	queue.Close()
	assert.True(t, queue.closed)

	err := queue.Enqueue(newMockJob())
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Buffered jobs survive Close
	received := <-queue.Channel()
	assert.Equal(t, job.ID(), received.ID())

	select {
	case _, ok := <-queue.Channel():
		assert.False(t, ok, "channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for closed channel read")
	}
}

func TestConcurrentEnqueue(t *testing.T) {
	queue := NewJobQueue(100, setupTestLogger())

	jobCount := 50
	errs := make(chan error, jobCount)
	for i := 0; i < jobCount; i++ {
		go func() {
			errs <- queue.Enqueue(newMockJob())
		}()
	}
	for i := 0; i < jobCount; i++ {
		assert.NoError(t, <-errs)
	}

	count := 0
	for i := 0; i < jobCount; i++ {
		select {
		case <-queue.Channel():
			count++
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for job")
		}
	}
	assert.Equal(t, jobCount, count)
}
