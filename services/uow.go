package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/cuereview/repositories"
)

// UnitOfWork scopes a whole ingestion into one atomic unit: everything fn
// writes through the executor commits together, or rolls back on the first
// propagated failure.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlUnitOfWork struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLUnitOfWork(db *sql.DB, logger *slog.Logger) UnitOfWork {
	return &sqlUnitOfWork{db: db, logger: logger}
}

func (u *sqlUnitOfWork) Run(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (err error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			u.logger.Error("rolling back transaction", slog.Any("error", err))
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", cErr)
			}
		}
	}()

	err = fn(tx)
	return err
}
