package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	actx "go.hackfix.me/ratchet/app/context"
	aerrors "go.hackfix.me/ratchet/app/errors"
)

// Status prints the available migrations and the current schema version.
type Status struct{}

// Run the status command.
func (c *Status) Run(appCtx *actx.Context, g *Globals) error {
	m, err := g.newMigrator(appCtx, appCtx.Logger)
	if err != nil {
		return err
	}

	st, err := m.Status(appCtx.Ctx)
	if err != nil {
		return migrateError(err, nil, g.MigrationsDir)
	}

	if st.Sequence.Len() == 0 {
		fmt.Fprintf(appCtx.Stdout, "no migrations found in '%s'\n", g.MigrationsDir)
	} else {
		rows := make([][]string, 0, st.Sequence.Len())
		for _, mig := range st.Sequence.Migrations() {
			applied := "no"
			if mig.Index <= st.Version {
				applied = "yes"
			}
			rows = append(rows, []string{
				strconv.Itoa(mig.Index),
				filepath.Base(mig.UpPath),
				filepath.Base(mig.DownPath),
				applied,
			})
		}

		header := []string{"Version", "Up", "Down", "Applied"}
		if err = renderTable(appCtx.Stdout, header, rows); err != nil {
			return aerrors.NewWithCause("failed rendering status table", err)
		}
	}

	fmt.Fprintf(appCtx.Stdout, "current version: %d\n", st.Version)
	if st.Version > st.Sequence.Latest() {
		appCtx.Logger.Warn("the database is ahead of the available migrations",
			"version", st.Version, "latest", st.Sequence.Latest())
	}

	return nil
}
