package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/ratchet/db/types"
)

func TestVersionStore(t *testing.T) {
	t.Parallel()

	t.Run("ok/read_uninitialized", func(t *testing.T) {
		t.Parallel()

		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.DialectSQLite)

		v, err := store.read(t.Context())
		require.NoError(t, err)
		assert.Equal(t, -1, v)

		// Reading must not create the table.
		exists, err := store.tableExists(t.Context())
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ok/ensure_idempotent", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.DialectSQLite)

		require.NoError(t, store.ensure(ctx))
		v, err := store.read(ctx)
		require.NoError(t, err)
		assert.Equal(t, -1, v)

		require.NoError(t, advance(ctx, conn, Up))
		require.NoError(t, advance(ctx, conn, Up))

		// A second ensure must keep the existing version.
		require.NoError(t, store.ensure(ctx))
		v, err = store.read(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		var rows int
		err = conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+VersionTable).Scan(&rows)
		require.NoError(t, err)
		assert.Equal(t, 1, rows)
	})

	t.Run("ok/read_missing_row", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.DialectSQLite)

		require.NoError(t, store.ensure(ctx))
		_, err := conn.ExecContext(ctx, `DELETE FROM `+VersionTable)
		require.NoError(t, err)

		v, err := store.read(ctx)
		require.NoError(t, err)
		assert.Equal(t, -1, v)
	})

	t.Run("ok/advance_down", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.DialectSQLite)
		require.NoError(t, store.ensure(ctx))

		for range 3 {
			require.NoError(t, advance(ctx, conn, Up))
		}
		require.NoError(t, advance(ctx, conn, Down))

		v, err := store.read(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("err/advance_missing_row", func(t *testing.T) {
		t.Parallel()

		ctx := t.Context()
		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.DialectSQLite)
		require.NoError(t, store.ensure(ctx))
		_, err := conn.ExecContext(ctx, `DELETE FROM `+VersionTable)
		require.NoError(t, err)

		err = advance(ctx, conn, Up)
		assert.EqualError(t, err, "integrity error: updated 0 schema version rows, expected 1")
	})

	t.Run("err/unsupported_dialect", func(t *testing.T) {
		t.Parallel()

		conn := newTestDB(t).open(t)
		store := newVersionStore(conn, types.Dialect("oracle"))

		_, err := store.read(t.Context())
		assert.EqualError(t, err, "unsupported SQL dialect 'oracle'")
	})
}
