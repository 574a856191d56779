package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxRunner executes a function inside a database transaction. The claim
// batch and every override transition run through it so row locks and state
// writes commit or roll back together.
type TxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a TxRunner on the given database handle.
func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx begins a transaction, runs fn with it and commits. Any error from
// fn rolls the transaction back and is returned unchanged so callers can
// match sentinel errors.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(q sqlx.ExtContext) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
