package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/ratchet/app/context"
)

const (
	testConfigPath = "/config.json"
	testMigDir     = "/migrations"
)

var testScripts = map[string]string{
	"0.up.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);",
	"0.down.sql": "DROP TABLE users;",
	"1.up.sql":   "CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users (id));",
	"1.down.sql": "DROP TABLE posts;",
	"2.up.sql":   "CREATE INDEX posts_user_id ON posts (user_id);",
	"2.down.sql": "DROP INDEX posts_user_id;",
}

type testApp struct {
	*App
	stdout, stderr *bytes.Buffer
	env            *mockEnv
	dbPath         string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	env := &mockEnv{env: map[string]string{}}
	app, err := New("ratchet", testConfigPath,
		WithContext(context.Background()),
		WithEnv(env),
		WithFDs(strings.NewReader(""), stdout, stderr),
		WithFS(memoryfs.New()),
		WithLogger(false),
	)
	require.NoError(t, err)

	return &testApp{
		App: app, stdout: stdout, stderr: stderr, env: env,
		dbPath: filepath.Join(t.TempDir(), "test.db"),
	}
}

// Run executes the app with the given arguments. The output buffers are reset
// before each run.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()

	return ta.App.Run(args)
}

// writeScripts writes the named migration scripts to the migrations directory.
func (ta *testApp) writeScripts(t *testing.T, scripts map[string]string) {
	t.Helper()

	fs := ta.ctx.FS
	require.NoError(t, fs.MkdirAll(testMigDir, 0o755))
	for name, script := range scripts {
		path := filepath.Join(testMigDir, name)
		require.NoError(t, vfs.WriteFile(fs, path, []byte(script), 0o644))
	}
}

// dbFlags returns the flags that point the app at the test database and
// migrations directory.
func (ta *testApp) dbFlags() []string {
	return []string{"--database-url", ta.dbPath, "-m", testMigDir}
}

func (ta *testApp) readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := vfs.ReadFile(ta.ctx.FS, path)
	require.NoError(t, err)

	return string(data)
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Lookup(key string) (string, bool) {
	me.mx.RLock()
	defer me.mx.RUnlock()
	val, ok := me.env[key]
	return val, ok
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}
