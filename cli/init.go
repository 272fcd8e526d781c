package cli

import (
	"database/sql"
	"fmt"

	actx "go.hackfix.me/ratchet/app/context"
	aerrors "go.hackfix.me/ratchet/app/errors"
	"go.hackfix.me/ratchet/db/types"
)

// Init writes the configuration file from the current settings and creates
// the migrations directory.
type Init struct {
	Force bool `help:"Overwrite an existing configuration file."`
}

// Run the init command.
func (c *Init) Run(appCtx *actx.Context, g *Globals) error {
	cfg := appCtx.Config
	if cfg.Exists() && !c.Force {
		return aerrors.NewWith("configuration file already exists",
			"path", cfg.Path(), "hint", "Use --force to overwrite it")
	}

	if err := appCtx.FS.MkdirAll(g.MigrationsDir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating migrations directory", err,
			"dir", g.MigrationsDir)
	}

	cfg.Database.Driver = sql.Null[types.Dialect]{V: g.dialect, Valid: true}
	if g.DatabaseURL != "" {
		cfg.Database.URL = sql.Null[string]{V: g.DatabaseURL, Valid: true}
	}
	cfg.Migrations.Dir = sql.Null[string]{V: g.MigrationsDir, Valid: true}

	if err := cfg.Save(); err != nil {
		return aerrors.NewWithCause("failed saving configuration", err, "path", cfg.Path())
	}

	fmt.Fprintf(appCtx.Stdout, "wrote configuration to '%s'\n", cfg.Path())

	return nil
}
