package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/phrazzld/taskflow/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// violation is a driver-neutral classification of a constraint error.
type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
	checkViolation
	notNullViolation
)

// classify inspects PostgreSQL and SQLite driver errors. detail carries the
// constraint or column text the driver reported.
func classify(err error) (kind violation, detail string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		detail = pgErr.ConstraintName
		switch pgErr.Code {
		case uniqueViolationCode:
			return uniqueViolation, detail
		case foreignKeyViolationCode:
			return foreignKeyViolation, detail
		case checkViolationCode:
			return checkViolation, detail
		case notNullViolationCode:
			return notNullViolation, pgErr.ColumnName
		}
		return noViolation, detail
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		detail = liteErr.Error()
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueViolation, detail
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyViolation, detail
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return checkViolation, detail
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return notNullViolation, detail
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only; fall back to the message text
			switch {
			case strings.Contains(detail, "UNIQUE"):
				return uniqueViolation, detail
			case strings.Contains(detail, "FOREIGN KEY"):
				return foreignKeyViolation, detail
			case strings.Contains(detail, "CHECK"):
				return checkViolation, detail
			case strings.Contains(detail, "NOT NULL"):
				return notNullViolation, detail
			}
		}
	}
	return noViolation, detail
}

// MapError maps a database error to a store error, wrapping the original
// to keep context for logs.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	switch kind, detail := classify(err); kind {
	case uniqueViolation:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case foreignKeyViolation:
		return fmt.Errorf("%w: foreign key violation (%s): %v", store.ErrInvalidEntity, detail, err)
	case checkViolation:
		return fmt.Errorf("%w: check constraint violation (%s): %v", store.ErrInvalidEntity, detail, err)
	case notNullViolation:
		return fmt.Errorf("%w: not null violation (%s): %v", store.ErrInvalidEntity, detail, err)
	}

	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation
// on either backend.
func IsUniqueViolation(err error) bool {
	kind, _ := classify(err)
	return kind == uniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation on
// either backend.
func IsForeignKeyViolation(err error) bool {
	kind, _ := classify(err)
	return kind == foreignKeyViolation
}

// mapUserConflict turns a unique violation on the users table into the
// matching entity-specific duplicate error.
func mapUserConflict(err error) error {
	kind, detail := classify(err)
	if kind != uniqueViolation {
		return MapError(err)
	}
	switch {
	case strings.Contains(detail, "email"):
		return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
	case strings.Contains(detail, "username"):
		return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
	default:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}

	return nil
}

// IsNotFound reports whether err means a query matched no rows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound)
}
