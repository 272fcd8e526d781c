package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/ratchet/app/context"
	aerrors "go.hackfix.me/ratchet/app/errors"
	"go.hackfix.me/ratchet/db/migrator"
)

// Create writes an empty pair of migration scripts with the next free index.
type Create struct {
	Ext string `default:"sql" help:"File extension of the created scripts."`
}

// Run the create command.
func (c *Create) Run(appCtx *actx.Context, g *Globals) error {
	ext := strings.TrimPrefix(c.Ext, ".")
	if ext == "" {
		return aerrors.NewWith("the script extension must not be empty")
	}

	dir := g.MigrationsDir
	if err := appCtx.FS.MkdirAll(dir, 0o755); err != nil {
		return aerrors.NewWithCause("failed creating migrations directory", err, "dir", dir)
	}

	seq, err := migrator.Load(appCtx.FS, dir)
	if err != nil {
		return migrateError(err, nil, dir)
	}

	idx := seq.Len()
	paths := []string{
		filepath.Join(dir, fmt.Sprintf("%d.up.%s", idx, ext)),
		filepath.Join(dir, fmt.Sprintf("%d.down.%s", idx, ext)),
	}
	for _, p := range paths {
		if _, err = appCtx.FS.Stat(p); err == nil {
			return aerrors.NewWith("migration script already exists", "path", p)
		}
	}

	headers := []string{
		fmt.Sprintf("-- Migration %d: apply changes.\n", idx),
		fmt.Sprintf("-- Migration %d: revert the changes of %s.\n", idx, filepath.Base(paths[0])),
	}
	for i, p := range paths {
		if err = vfs.WriteFile(appCtx.FS, p, []byte(headers[i]), 0o644); err != nil {
			return aerrors.NewWithCause("failed writing migration script", err, "path", p)
		}
		fmt.Fprintln(appCtx.Stdout, p)
	}

	appCtx.Logger.Debug("created migration", "index", idx, "dir", dir)

	return nil
}
