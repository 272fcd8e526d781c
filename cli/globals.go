package cli

import (
	"context"
	"log/slog"
	"strings"

	actx "go.hackfix.me/ratchet/app/context"
	aerrors "go.hackfix.me/ratchet/app/errors"
	"go.hackfix.me/ratchet/db"
	"go.hackfix.me/ratchet/db/migrator"
	"go.hackfix.me/ratchet/db/types"
)

// Globals are the options shared by all commands.
type Globals struct {
	//nolint:lll // Long struct tags are unavoidable.
	DatabaseURL   string `help:"Connection URL of the database to migrate. For SQLite this is a file path or a file: URI, for PostgreSQL a postgres:// URL." placeholder:"URL"`
	Driver        string `help:"Database driver. Valid values: ${drivers}. Default: sqlite"`
	MigrationsDir string `short:"m" help:"Directory containing the migration scripts. Default: migrations" placeholder:"DIR"`

	dialect types.Dialect
}

// inferDriver sets the driver from the database URL scheme, if the driver
// wasn't set explicitly.
func (g *Globals) inferDriver() {
	if g.Driver != "" {
		return
	}
	if strings.HasPrefix(g.DatabaseURL, "postgres://") ||
		strings.HasPrefix(g.DatabaseURL, "postgresql://") {
		g.Driver = string(types.DialectPostgres)
	}
}

func (g *Globals) validate() error {
	d, err := types.DialectFromString(g.Driver)
	if err != nil {
		return aerrors.NewWith(err.Error(), "hint", "Valid drivers are: "+driverNames())
	}
	g.dialect = d

	return nil
}

// newMigrator returns a Migrator for the configured database and migrations
// directory. It fails if no database URL is configured.
func (g *Globals) newMigrator(appCtx *actx.Context, logger *slog.Logger) (*migrator.Migrator, error) {
	if g.DatabaseURL == "" {
		return nil, aerrors.NewWith("no database URL configured",
			"hint", "Set it with --database-url, the RATCHET_DATABASE_URL environment variable, or 'ratchet init'")
	}

	connect := func(ctx context.Context) (migrator.Conn, error) {
		d, err := db.Open(ctx, g.dialect, g.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	return migrator.New(appCtx.FS, g.MigrationsDir, connect, migrator.WithLogger(logger)), nil
}

// driverNames returns the supported database drivers as a comma-separated list.
func driverNames() string {
	dialects := types.Dialects()
	names := make([]string, len(dialects))
	for i, d := range dialects {
		names[i] = string(d)
	}

	return strings.Join(names, ", ")
}
