package migrator

import (
	"errors"
	"fmt"
)

// ErrNoMigrations is returned when no migrations are defined, and the
// requested target version requires at least one.
var ErrNoMigrations = errors.New("no migrations defined")

// LoadError represents a failure to read a migration script.
type LoadError struct {
	Index int
	Path  string
	Err   error
}

// Error returns a string representation of the error.
func (e LoadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("failed loading migrations from '%s': %s", e.Path, e.Err)
	}
	return fmt.Sprintf("failed loading migration %d from '%s': %s", e.Index, e.Path, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e LoadError) Unwrap() error {
	return e.Err
}

// MissingPairError represents a forward script without a matching backward
// script.
type MissingPairError struct {
	Index int
	Path  string
}

// Error returns a string representation of the error.
func (e MissingPairError) Error() string {
	return fmt.Sprintf("migration %d is missing its down script '%s'", e.Index, e.Path)
}

// DuplicateStepError represents two migration scripts resolving to the same
// index.
type DuplicateStepError struct {
	Index int
	Paths []string
}

// Error returns a string representation of the error.
func (e DuplicateStepError) Error() string {
	if len(e.Paths) == 0 {
		return fmt.Sprintf("duplicate migration %d", e.Index)
	}
	return fmt.Sprintf("duplicate migration %d: %q", e.Index, e.Paths)
}

// MissingStepError represents a gap in the migration sequence.
type MissingStepError struct {
	Index int
}

// Error returns a string representation of the error.
func (e MissingStepError) Error() string {
	return fmt.Sprintf("migration %d is missing", e.Index)
}

// UnreachableTargetError represents a target version outside of the range
// covered by the migration sequence.
type UnreachableTargetError struct {
	Target int
	Latest int
}

// Error returns a string representation of the error.
func (e UnreachableTargetError) Error() string {
	return fmt.Sprintf("target version %d is unreachable: valid versions are -1 to %d",
		e.Target, e.Latest)
}

// ExecError represents a failure to run a migration script.
type ExecError struct {
	Index     int
	Direction Direction
	Path      string
	Err       error
}

// Error returns a string representation of the error.
func (e ExecError) Error() string {
	return fmt.Sprintf("failed running migration %d %s: %s", e.Index, e.Direction, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e ExecError) Unwrap() error {
	return e.Err
}

// VersionUpdateError represents a failure to update the schema version after
// running a migration script.
type VersionUpdateError struct {
	Index     int
	Direction Direction
	Err       error
}

// Error returns a string representation of the error.
func (e VersionUpdateError) Error() string {
	return fmt.Sprintf("failed updating schema version for migration %d %s: %s",
		e.Index, e.Direction, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e VersionUpdateError) Unwrap() error {
	return e.Err
}

// StepIndex returns the index and direction of the migration step that caused
// err, if err originated while executing a step.
func StepIndex(err error) (index int, dir Direction, ok bool) {
	var execErr ExecError
	if errors.As(err, &execErr) {
		return execErr.Index, execErr.Direction, true
	}
	var verErr VersionUpdateError
	if errors.As(err, &verErr) {
		return verErr.Index, verErr.Direction, true
	}

	return 0, Up, false
}
