// Package testutils provides test doubles shared by the notification
// engine, service and API tests.
//
// # Stores
//
// NewMemoryStores returns thread-safe in-memory implementations of every
// store interface. They share one state, so deleting a task removes its
// ledger rows and clears task references on in-app notifications, the
// same way the SQL schema cascades:
//
//	stores := testutils.NewMemoryStores()
//	user := stores.MustAddUser(t, "alice")
//	stores.MustAddTask(t, user.ID, "report", &today, domain.PriorityHigh)
//
// Faults can be injected per call site, for example
// stores.Tasks.FailListFor(user.ID, err) or stores.Logs.FailAppend(err).
//
// # Email
//
// RecordingSender captures every send and can be scripted to fail or
// panic.
//
// # Time
//
// FixedClock returns a settable instant.
package testutils
