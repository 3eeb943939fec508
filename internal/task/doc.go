// Package task runs background jobs on an in-process worker pool.
// Jobs are fed through a bounded JobQueue so request handlers can hand off
// slow work, such as sending an immediate due-date notification, without
// blocking on it. Jobs are not persisted: a job still queued when the
// process stops is dropped.
package task
