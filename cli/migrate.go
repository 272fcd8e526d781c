package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/nrednav/cuid2"

	actx "go.hackfix.me/ratchet/app/context"
	aerrors "go.hackfix.me/ratchet/app/errors"
	"go.hackfix.me/ratchet/db/migrator"
)

// Migrate moves the database to a target schema version.
type Migrate struct {
	//nolint:lll // Long struct tags are unavoidable.
	Target targetVersion `arg:"" optional:"" help:"The schema version to migrate to. Defaults to the latest version. -1 reverts all migrations."`
}

// Run the migrate command.
func (c *Migrate) Run(appCtx *actx.Context, g *Globals) error {
	logger := appCtx.Logger.With("run_id", cuid2.Generate())

	m, err := g.newMigrator(appCtx, logger)
	if err != nil {
		return err
	}

	res, err := m.Run(appCtx.Ctx, c.Target.Null)
	if err != nil {
		return migrateError(err, res, g.MigrationsDir)
	}

	if len(res.Applied) == 0 {
		_, err = fmt.Fprintf(appCtx.Stdout, "already at target version %d\n", res.Target)
	} else {
		_, err = fmt.Fprintf(appCtx.Stdout, "migrated from %d to %d (%d steps)\n",
			res.Source, res.Version(), len(res.Applied))
	}
	if err != nil {
		return aerrors.NewWithCause("failed writing to stdout", err)
	}

	return nil
}

// migrateError converts an error returned by Migrator.Run into a user-facing
// error that identifies the failed step, if any.
func migrateError(err error, res *migrator.Result, dir string) error {
	if idx, direction, ok := migrator.StepIndex(err); ok {
		fields := []any{"index", idx, "direction", direction.String()}
		if res != nil {
			fields = append(fields,
				"from", res.Source, "to", res.Target, "version", res.Version())
		}
		return aerrors.NewWithCause("migration failed", err, fields...)
	}

	var (
		loadErr    migrator.LoadError
		pairErr    migrator.MissingPairError
		dupErr     migrator.DuplicateStepError
		missErr    migrator.MissingStepError
		unreachErr migrator.UnreachableTargetError
	)
	switch {
	case errors.Is(err, migrator.ErrNoMigrations):
		return aerrors.With(err, "dir", dir,
			"hint", "Create a migration with 'ratchet create'")
	case errors.As(err, &loadErr), errors.As(err, &pairErr), errors.As(err, &dupErr):
		return aerrors.NewWithCause("failed loading migrations", err, "dir", dir)
	case errors.As(err, &missErr):
		return aerrors.NewWithCause("migration sequence is incomplete", err,
			"dir", dir, "index", missErr.Index)
	case errors.As(err, &unreachErr):
		return aerrors.NewWithCause("invalid target version", err,
			"target", unreachErr.Target, "latest", unreachErr.Latest)
	}

	return aerrors.NewWithCause("migration failed", err)
}

// targetVersion is an optional, signed schema version argument.
type targetVersion struct {
	sql.Null[int]
}

var _ kong.MapperValue = (*targetVersion)(nil)

// Decode implements the kong.MapperValue interface.
func (t *targetVersion) Decode(kctx *kong.DecodeContext) error {
	var value string
	err := kctx.Scan.PopValueInto("target", &value)
	if err != nil {
		return err
	}

	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid target version '%s': must be an integer", value)
	}
	t.V, t.Valid = v, true

	return nil
}
