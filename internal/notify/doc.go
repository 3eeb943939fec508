// Package notify implements the due-date notification engine.
//
// A Scheduler wakes at fixed times of day, enumerates users that have open
// tasks with a due date, classifies those tasks into due-today,
// due-tomorrow and overdue batches and hands every non-empty batch to the
// Dispatcher. The Dispatcher gates on the user's preferences, consults the
// dedup ledger, renders the email with the Composer, sends it, records one
// ledger row per task and always leaves one in-app notification behind.
//
// The Dispatcher also exposes an immediate single-task path used right
// after a task is created or its due date changes. That path shares the
// preference gate but deliberately skips the dedup check.
//
// Nothing in this package is fatal to the process: delivery failures become
// failed ledger rows, and a fault while processing one user is logged and
// the cycle moves on to the next user.
package notify
