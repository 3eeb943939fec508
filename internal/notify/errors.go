package notify

import "errors"

var (
	// ErrSchedulerRunning is returned by Start when the loop is already active.
	ErrSchedulerRunning = errors.New("scheduler already running")

	// ErrUnknownDedupPolicy is returned for an unrecognised policy name.
	ErrUnknownDedupPolicy = errors.New("unknown dedup policy")

	// ErrInvalidSchedule is returned when a schedule time cannot be parsed.
	ErrInvalidSchedule = errors.New("invalid schedule time")
)
