package task

import (
	"context"

	"github.com/google/uuid"
)

// Job type identifiers
const (
	// JobTypeImmediateNotification sends the single-task notification
	// after a task is created or rescheduled.
	JobTypeImmediateNotification = "immediate_notification"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// JobQueueReader provides read-only access to the job channel
// allowing workers to consume jobs without the ability to enqueue
type JobQueueReader interface {
	// Channel returns a read-only channel for consuming jobs
	Channel() <-chan Job
}

// JobQueueWriter provides write access to the job queue
// allowing services to enqueue jobs for processing
type JobQueueWriter interface {
	// Enqueue adds a job to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(job Job) error

	// Close closes the job queue, preventing further submission
	Close()
}
