package types

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Execer executes SQL statements that don't return rows.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier exposes only methods for running SQL queries.
type Querier interface {
	Execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect is the SQL dialect of a database.
type Dialect string

// Supported SQL dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Dialects returns all supported dialects.
func Dialects() []Dialect {
	return []Dialect{DialectSQLite, DialectPostgres}
}

// DialectFromString returns the Dialect with the given name. "postgresql" is
// accepted as an alias of "postgres".
func DialectFromString(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(DialectSQLite), "sqlite3":
		return DialectSQLite, nil
	case string(DialectPostgres), "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver '%s'", s)
	}
}

// DriverName returns the name of the database/sql driver for this dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	default:
		return "sqlite"
	}
}
