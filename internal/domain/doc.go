// Package domain contains the core entities of the task tracker: users,
// tasks with calendar due dates, notification preferences, the notification
// ledger and in-app notifications. It has no knowledge of storage or
// delivery mechanisms.
package domain
