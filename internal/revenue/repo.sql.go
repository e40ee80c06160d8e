package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for revenue aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindAggregatesByPeriodRange returns stored aggregates within [start, end],
// oldest first. Months without invoices have no row.
func (r *Repository) FindAggregatesByPeriodRange(ctx context.Context, start, end shared.Period) ([]Aggregate, error) {
	rows, err := r.pool.Query(ctx, `SELECT period, invoice_count, total_amount, total_paid_amount, total_pending_amount, calculation_source, updated_at
FROM revenue_aggregates WHERE period >= $1 AND period <= $2 ORDER BY period`, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("revenue: query aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []Aggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// WithTx wraps the callback in a repeatable-read transaction. Aggregate row
// locks taken inside serialize concurrent writers per period. A transaction
// already carried by the context is joined; its owner commits or rolls back.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if tx, ok := db.TxFromContext(ctx); ok {
		return fn(ctx, &txRepo{tx: tx})
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("revenue: begin tx: %w", err)
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepo struct {
	tx pgx.Tx
}

// GetAggregateForUpdate loads and row-locks the aggregate for a period.
// Returns nil when no row exists.
func (t *txRepo) GetAggregateForUpdate(ctx context.Context, period shared.Period) (*Aggregate, error) {
	row := t.tx.QueryRow(ctx, `SELECT period, invoice_count, total_amount, total_paid_amount, total_pending_amount, calculation_source, updated_at
FROM revenue_aggregates WHERE period = $1 FOR UPDATE`, period.Time())
	agg, err := scanAggregate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// UpsertAggregate writes the full aggregate state for a period.
func (t *txRepo) UpsertAggregate(ctx context.Context, agg Aggregate) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO revenue_aggregates (period, invoice_count, total_amount, total_paid_amount, total_pending_amount, calculation_source, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (period) DO UPDATE SET
  invoice_count = EXCLUDED.invoice_count,
  total_amount = EXCLUDED.total_amount,
  total_paid_amount = EXCLUDED.total_paid_amount,
  total_pending_amount = EXCLUDED.total_pending_amount,
  calculation_source = EXCLUDED.calculation_source,
  updated_at = EXCLUDED.updated_at`,
		agg.Period.Time(), agg.InvoiceCount, agg.TotalAmount, agg.Buckets.Paid, agg.Buckets.Pending, agg.Source, agg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("revenue: upsert aggregate: %w", err)
	}
	return nil
}

// DeleteAggregate removes the aggregate row for a period.
func (t *txRepo) DeleteAggregate(ctx context.Context, period shared.Period) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM revenue_aggregates WHERE period = $1`, period.Time())
	if err != nil {
		return fmt.Errorf("revenue: delete aggregate: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAggregate(row rowScanner) (Aggregate, error) {
	var agg Aggregate
	var periodTime time.Time
	if err := row.Scan(&periodTime, &agg.InvoiceCount, &agg.TotalAmount, &agg.Buckets.Paid, &agg.Buckets.Pending, &agg.Source, &agg.UpdatedAt); err != nil {
		return Aggregate{}, err
	}
	agg.Period = shared.NewPeriod(periodTime)
	return agg, nil
}
