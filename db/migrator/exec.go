package migrator

import (
	"context"
	"fmt"

	"go.hackfix.me/ratchet/db/types"
)

// applyStep runs a single migration step and updates the schema version in
// one transaction. If any part fails, the transaction is rolled back and the
// database is left as it was before the step.
func applyStep(ctx context.Context, conn Conn, step Step) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return ExecError{
			Index: step.Index, Direction: step.Direction, Path: step.Path,
			Err: fmt.Errorf("failed starting transaction: %w", types.Err(err)),
		}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, step.Script); err != nil {
		return ExecError{
			Index: step.Index, Direction: step.Direction, Path: step.Path,
			Err: types.Err(err),
		}
	}

	if err = advance(ctx, tx, step.Direction); err != nil {
		return VersionUpdateError{
			Index: step.Index, Direction: step.Direction, Err: types.Err(err),
		}
	}

	if err = tx.Commit(); err != nil {
		return ExecError{
			Index: step.Index, Direction: step.Direction, Path: step.Path,
			Err: fmt.Errorf("failed committing transaction: %w", types.Err(err)),
		}
	}

	return nil
}
