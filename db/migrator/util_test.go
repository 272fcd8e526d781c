package migrator

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	_ "github.com/glebarez/go-sqlite"
	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/ratchet/db/types"
)

const testDir = "/migrations"

// testMigrations is a valid set of five migrations.
var testMigrations = map[string]string{
	"0.up.sql":   `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`,
	"0.down.sql": `DROP TABLE users;`,
	"1.up.sql":   `CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users (id), body TEXT);`,
	"1.down.sql": `DROP TABLE posts;`,
	"2.up.sql":   `CREATE INDEX posts_user_id ON posts (user_id);`,
	"2.down.sql": `DROP INDEX posts_user_id;`,
	"3.up.sql": `CREATE TABLE tags (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE post_tags (post_id INTEGER NOT NULL, tag_id INTEGER NOT NULL);`,
	"3.down.sql": `DROP TABLE post_tags;
DROP TABLE tags;`,
	"4.up.sql":   `CREATE TABLE comments (id INTEGER PRIMARY KEY, post_id INTEGER NOT NULL, body TEXT);`,
	"4.down.sql": `DROP TABLE comments;`,
}

// firstN returns the files of the first n migrations in testMigrations.
func firstN(n int) map[string]string {
	files := make(map[string]string, n*2)
	for name, script := range testMigrations {
		idx, err := strconv.Atoi(strings.SplitN(name, ".", 2)[0])
		if err != nil {
			panic(err)
		}
		if idx < n {
			files[name] = script
		}
	}
	return files
}

// newTestFS returns an in-memory filesystem with the given files written
// to testDir.
func newTestFS(t *testing.T, files map[string]string) vfs.FileSystem {
	t.Helper()

	fs := memoryfs.New()
	require.NoError(t, fs.MkdirAll(testDir, 0o755))
	for name, content := range files {
		err := vfs.WriteFile(fs, filepath.Join(testDir, name), []byte(content), 0o644)
		require.NoError(t, err)
	}

	return fs
}

// failingFS is a filesystem that fails to open a specific file.
type failingFS struct {
	vfs.FileSystem
	path string
	err  error
}

func (f *failingFS) Open(name string) (vfs.File, error) {
	if name == f.path {
		return nil, f.err
	}
	return f.FileSystem.Open(name)
}

func (f *failingFS) OpenFile(name string, flags int, perm os.FileMode) (vfs.File, error) {
	if name == f.path {
		return nil, f.err
	}
	return f.FileSystem.OpenFile(name, flags, perm)
}

var errTestRead = errors.New("permission denied")

// testConn is an SQLite connection that records whether it was closed.
type testConn struct {
	*sql.DB
	closed atomic.Bool
}

var _ Conn = (*testConn)(nil)

func (c *testConn) Dialect() types.Dialect {
	return types.DialectSQLite
}

func (c *testConn) Close() error {
	c.closed.Store(true)
	return c.DB.Close()
}

// testDB is an SQLite database file shared between the connections opened
// by its connect function.
type testDB struct {
	path        string
	connects    atomic.Int32
	lastConn    atomic.Pointer[testConn]
	connectFail error
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	return &testDB{path: filepath.Join(t.TempDir(), "test.db")}
}

func (d *testDB) connect(ctx context.Context) (Conn, error) {
	d.connects.Add(1)
	if d.connectFail != nil {
		return nil, d.connectFail
	}

	sqlDB, err := sql.Open("sqlite", d.path)
	if err != nil {
		return nil, err
	}
	if err = sqlDB.PingContext(ctx); err != nil {
		return nil, err
	}
	conn := &testConn{DB: sqlDB}
	d.lastConn.Store(conn)

	return conn, nil
}

// open returns a new connection for inspecting the database in tests.
func (d *testDB) open(t *testing.T) *testConn {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", d.path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &testConn{DB: sqlDB}
}

// version returns the schema version stored in the database.
func (d *testDB) version(t *testing.T) int {
	t.Helper()

	v, err := CurrentVersion(t.Context(), d.open(t))
	require.NoError(t, err)

	return v
}

// tables returns the names of all tables in the database, excluding the
// version table.
func (d *testDB) tables(t *testing.T) []string {
	t.Helper()

	rows, err := d.open(t).QueryContext(t.Context(),
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name != ? ORDER BY name`,
		VersionTable)
	require.NoError(t, err)
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		tables = append(tables, name)
	}
	require.NoError(t, rows.Err())

	return tables
}

func target(v int) sql.Null[int] {
	return sql.Null[int]{V: v, Valid: true}
}
