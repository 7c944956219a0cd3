package services

import (
	"context"
	"database/sql"
	"fmt"

	"courtside-live/repositories"
)

// runInTx executes fn inside a database transaction so multi-statement
// persists commit or roll back as one unit. A nil db runs fn against the
// bare pool; the in-memory repositories used in tests have nothing to
// roll back.
func runInTx(ctx context.Context, db *sql.DB, fn func(exec repositories.SQLExecutor) error) error {
	if db == nil {
		return fn(nil)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
