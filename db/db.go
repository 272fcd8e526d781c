package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"

	"go.hackfix.me/ratchet/db/migrator"
	"go.hackfix.me/ratchet/db/types"
)

// DB wraps sql.DB with the SQL dialect of the database.
type DB struct {
	*sql.DB
	dialect types.Dialect
}

var (
	_ types.Querier = (*DB)(nil)
	_ migrator.Conn = (*DB)(nil)
)

// Open creates a new database connection for the given dialect, and checks
// that the database is reachable.
func Open(ctx context.Context, dialect types.Dialect, url string) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	sqlDB, err := sql.Open(dialect.DriverName(), url)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", dialect, err)
	}

	if dialect == types.DialectSQLite && isMemoryURL(url) {
		// Each new connection to a private in-memory database starts empty,
		// so the pool must hold on to exactly one.
		// See https://github.com/mattn/go-sqlite3#faq
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed connecting to %s database: %w", dialect, types.Err(err))
	}

	if dialect == types.DialectSQLite {
		// Enable foreign key enforcement
		if _, err = sqlDB.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	}

	return &DB{DB: sqlDB, dialect: dialect}, nil
}

// Dialect returns the SQL dialect of the database.
func (d *DB) Dialect() types.Dialect {
	return d.dialect
}

func isMemoryURL(url string) bool {
	return strings.Contains(url, "mode=memory") || strings.Contains(url, ":memory:")
}
