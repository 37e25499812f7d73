package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Executor runs statements against the pool or an open transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
)

// TxRunner runs a multi-statement store operation, such as a cascading
// soft delete, as one transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, ex Executor) error) error
}

// SQLTxRunner opens transactions on a *sql.DB.
type SQLTxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// InTx commits only when fn returns nil. An error or a panic inside fn
// leaves no statement of the transaction applied.
func (r *SQLTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, ex Executor) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
