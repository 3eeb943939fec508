// Package store defines the persistence interfaces used by the task
// tracker and its notification engine, together with the shared store
// errors and transaction helper. Implementations live under
// internal/platform.
package store
