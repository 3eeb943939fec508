// Package sqlstore implements the internal/store interfaces on top of
// database/sql via sqlx. The same queries run against PostgreSQL (driver
// "pgx") and SQLite (driver "sqlite"); placeholders are written as "?"
// and rebound for the active driver.
package sqlstore
