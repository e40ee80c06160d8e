package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ctxTxKey struct{}

// WithCtxTx returns a context carrying the transaction for repositories to
// pick up.
func WithCtxTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, ctxTxKey{}, tx)
}

// TxFromContext extracts the ambient transaction, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(ctxTxKey{}).(pgx.Tx)
	return tx, ok
}

// TxRunner executes callbacks inside one repeatable-read transaction carried
// through the context, so repositories of different packages share a single
// commit or rollback. The invoice write and the aggregate write it triggers
// must land together or not at all.
type TxRunner struct {
	pool beginner
}

type beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// NewTxRunner builds a runner over the shared pool.
func NewTxRunner(pool beginner) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx begins a transaction, stores it in the context, and commits when fn
// returns nil. A context already carrying a transaction is joined, not nested.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	if err := fn(WithCtxTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
