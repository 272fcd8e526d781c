package config

import (
	"database/sql"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/ratchet/db/types"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		data   string
		exp    Config
		expErr string
	}{
		{name: "ok/missing_file"},
		{name: "ok/empty_file"},
		{
			name: "ok/full",
			data: `{"database": {"driver": "postgresql", "url": "postgres://localhost/app"},
				"migrations": {"dir": "db/migrations"}}`,
			exp: Config{
				Database: Database{
					Driver: sql.Null[types.Dialect]{V: types.DialectPostgres, Valid: true},
					URL:    sql.Null[string]{V: "postgres://localhost/app", Valid: true},
				},
				Migrations: Migrations{Dir: sql.Null[string]{V: "db/migrations", Valid: true}},
			},
		},
		{
			name:   "err/invalid_driver",
			data:   `{"database": {"driver": "oracle"}}`,
			expErr: "unsupported database driver 'oracle'",
		},
		{
			name:   "err/invalid_json",
			data:   `{"database":`,
			expErr: "failed parsing configuration file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tc.name != "ok/missing_file" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tc.data), 0o600))
			}

			cfg := NewConfig(fs, "/config.json")
			err := cfg.Load()
			if tc.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exp.Database, cfg.Database)
			assert.Equal(t, tc.exp.Migrations, cfg.Migrations)
			assert.Equal(t, tc.name != "ok/missing_file", cfg.Exists())
		})
	}
}

func TestConfigSave(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	cfg := NewConfig(fs, "/home/user/.config/ratchet/config.json")
	cfg.Database.URL = sql.Null[string]{V: "/var/lib/app.db", Valid: true}
	cfg.SetDefaults()
	require.NoError(t, cfg.Save())

	data, err := vfs.ReadFile(fs, cfg.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"database": {"driver": "sqlite", "url": "/var/lib/app.db"},
		"migrations": {"dir": "migrations"}
	}`, string(data))

	loaded := NewConfig(fs, cfg.Path())
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, cfg.Migrations, loaded.Migrations)
}

func TestConfigSetDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Migrations.Dir = sql.Null[string]{V: "sql", Valid: true}
	cfg.SetDefaults()

	assert.Equal(t, types.DialectSQLite, cfg.Database.Driver.V)
	assert.False(t, cfg.Database.URL.Valid)
	assert.Equal(t, "sql", cfg.Migrations.Dir.V)
}
