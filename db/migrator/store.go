package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.hackfix.me/ratchet/db/types"
)

// VersionTable is the name of the table that stores the schema version.
const VersionTable = "schema_version"

// versionStore reads and writes the schema version marker: a single row with
// ID 0 in VersionTable.
type versionStore struct {
	q       types.Querier
	dialect types.Dialect
}

func newVersionStore(q types.Querier, dialect types.Dialect) *versionStore {
	return &versionStore{q: q, dialect: dialect}
}

// ensure creates the version table and the marker row, if they don't exist.
// An existing version is never modified.
func (s *versionStore) ensure(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+VersionTable+` (
		id      INTEGER PRIMARY KEY,
		version INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed creating %s table: %w", VersionTable, err)
	}

	_, err = s.q.ExecContext(ctx, `INSERT INTO `+VersionTable+` (id, version)
		SELECT 0, -1
		WHERE NOT EXISTS (SELECT 1 FROM `+VersionTable+` WHERE id = 0)`)
	if err != nil {
		return fmt.Errorf("failed initializing schema version: %w", err)
	}

	return nil
}

// read returns the current schema version. If the version table or the marker
// row don't exist, it returns -1.
func (s *versionStore) read(ctx context.Context) (int, error) {
	exists, err := s.tableExists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return -1, nil
	}

	var version int
	err = s.q.QueryRowContext(ctx,
		`SELECT version FROM `+VersionTable+` WHERE id = 0`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed reading schema version: %w", err)
	}

	return version, nil
}

func (s *versionStore) tableExists(ctx context.Context) (bool, error) {
	var query string
	switch s.dialect {
	case types.DialectPostgres:
		query = `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = '` + VersionTable + `'`
	case types.DialectSQLite:
		query = `SELECT COUNT(*) FROM sqlite_master
			WHERE type = 'table' AND name = '` + VersionTable + `'`
	default:
		return false, fmt.Errorf("unsupported SQL dialect '%s'", s.dialect)
	}

	var count int
	if err := s.q.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return false, fmt.Errorf("failed looking up %s table: %w", VersionTable, err)
	}

	return count > 0, nil
}

// advance changes the schema version by one in the given direction. It must be
// called within the same transaction as the migration script.
func advance(ctx context.Context, tx types.Execer, dir Direction) error {
	res, err := tx.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET version = version + (%d) WHERE id = 0`, VersionTable, dir.delta()))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	}
	if n != 1 {
		return types.IntegrityError{Msg: fmt.Sprintf("updated %d schema version rows, expected 1", n)}
	}

	return nil
}

// CurrentVersion returns the schema version of the database, or -1 if no
// migrations were ever applied. Unlike Migrator.Run, it doesn't create the
// version table.
func CurrentVersion(ctx context.Context, conn Conn) (int, error) {
	return newVersionStore(conn, conn.Dialect()).read(ctx)
}
