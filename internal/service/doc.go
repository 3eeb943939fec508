// Package service contains the application use cases that sit between the
// HTTP handlers and the stores: account registration and login, and task
// management.
//
// Task changes feed the notification engine. Creating a task, or moving its
// due date, runs the immediate notification path; completing or deleting a
// task leaves an in-app notification. Notification failures are logged and
// never fail the task operation that caused them.
package service
