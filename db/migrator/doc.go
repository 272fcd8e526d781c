// Package migrator manages database schema migrations.
//
// Features:
//   - Loads paired forward (`up`) and backward (`down`) scripts from a
//     directory, named `{N}.up.{ext}` and `{N}.down.{ext}`, where N is a dense,
//     zero-based step index
//   - Tracks the current schema version in a single-row bookkeeping table
//   - Plans and executes migrations to any target version, or to the latest one
//   - Applies every step and its version change in a single transaction
//
// Running more than one migration process against the same database at the
// same time is not supported. The version marker isn't locked, so callers must
// ensure that at most one process migrates a given database at a time.
package migrator
