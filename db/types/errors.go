package types

import (
	"errors"
	"fmt"

	"github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "modernc.org/sqlite/lib"
)

// IntegrityError represents a data integrity violation.
type IntegrityError struct {
	Msg string
}

// Error returns a string representation of the error.
func (e IntegrityError) Error() string {
	return fmt.Sprintf("integrity error: %s", e.Msg)
}

// LockedError represents a statement that couldn't run because the database,
// or one of the objects it needed, was locked by another connection.
type LockedError struct {
	Err error
}

// Error returns a string representation of the error.
func (e LockedError) Error() string {
	return fmt.Sprintf("database is locked, is another migration running? %s", e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e LockedError) Unwrap() error {
	return e.Err
}

// PostgreSQL error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgLockNotAvailable   = "55P03"
	pgDeadlockDetected   = "40P01"
	pgSerializationError = "40001"
)

// Err converts an expected error returned by the database driver into a
// friendly DB error of one of the types defined above.
func Err(err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		// Extended result codes keep the primary code in the lowest byte.
		switch sqlErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return LockedError{Err: err}
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationError:
			return LockedError{Err: err}
		}
	}

	return err
}
