package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/ratchet/db/types"
)

// Conn is a connection to the database being migrated.
type Conn interface {
	types.Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Dialect() types.Dialect
	Close() error
}

// ConnectFunc opens a connection to the database being migrated.
type ConnectFunc func(ctx context.Context) (Conn, error)

// Migrator moves a database between schema versions using the migrations
// stored in a directory.
type Migrator struct {
	fs      vfs.FileSystem
	dir     string
	connect ConnectFunc
	logger  *slog.Logger
}

// New returns a new Migrator that loads migrations from dir on fsys, and uses
// connect to open the database connection. The connection is only opened when
// needed, and is always closed before Run or Status return.
func New(fsys vfs.FileSystem, dir string, connect ConnectFunc, opts ...Option) *Migrator {
	m := &Migrator{fs: fsys, dir: dir, connect: connect}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Result describes the outcome of a migration run.
type Result struct {
	// Source is the schema version before the run.
	Source int
	// Target is the requested schema version.
	Target int
	// Applied are the steps that were committed, in order.
	Applied []Step
}

// Version returns the schema version after the applied steps.
func (r *Result) Version() int {
	v := r.Source
	for _, step := range r.Applied {
		v += step.Direction.delta()
	}
	return v
}

// Run migrates the database to the target version, or to the latest version
// if target is unset.
//
// Each step is committed on its own. If a step fails, Run stops and returns
// the error along with a Result listing the steps that were already applied.
// These are not reverted.
func (m *Migrator) Run(ctx context.Context, target sql.Null[int]) (*Result, error) {
	logger := m.logger.With("dir", m.dir)

	seq, err := Load(m.fs, m.dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded migrations", "count", seq.Len())

	if seq.Len() == 0 && (!target.Valid || target.V != -1) {
		return nil, ErrNoMigrations
	}

	conn, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer m.close(conn)

	store := newVersionStore(conn, conn.Dialect())
	if err = store.ensure(ctx); err != nil {
		return nil, types.Err(err)
	}
	source, err := store.read(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("read schema version", "version", source)

	plan, err := NewPlan(seq, source, target)
	if err != nil {
		return nil, err
	}

	res := &Result{Source: source, Target: plan.Target}
	if plan.Empty() {
		logger.Info("already at target version", "version", source)
		return res, nil
	}

	logger = logger.With("from", source, "to", plan.Target)
	logger.Debug("planned migration", "steps", len(plan.Steps))

	for i, step := range plan.Steps {
		stepLogger := logger.With("index", step.Index, "direction", step.Direction.String())
		stepLogger.Debug("applying migration", "step", i+1, "total", len(plan.Steps))

		if err = applyStep(ctx, conn, step); err != nil {
			stepLogger.Debug("migration failed", "applied", len(res.Applied))
			return res, err
		}
		res.Applied = append(res.Applied, step)

		stepLogger.Info("applied migration", "path", step.Path)
	}

	logger.Debug("migration complete")

	return res, nil
}

// Status describes the migrations available and the state of the database.
type Status struct {
	Sequence *Sequence
	Version  int
}

// Status loads the migrations and reads the current schema version, without
// modifying the database.
func (m *Migrator) Status(ctx context.Context) (*Status, error) {
	seq, err := Load(m.fs, m.dir)
	if err != nil {
		return nil, err
	}

	conn, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer m.close(conn)

	version, err := CurrentVersion(ctx, conn)
	if err != nil {
		return nil, err
	}

	return &Status{Sequence: seq, Version: version}, nil
}

func (m *Migrator) open(ctx context.Context) (Conn, error) {
	if m.connect == nil {
		return nil, fmt.Errorf("no database connection was configured")
	}
	conn, err := m.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed connecting to the database: %w", err)
	}

	return conn, nil
}

func (m *Migrator) close(conn Conn) {
	if err := conn.Close(); err != nil {
		m.logger.Warn("failed closing the database connection", "error", err)
	}
}
