package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// ErrDuplicateInvoice indicates an insert with an already used identifier.
var ErrDuplicateInvoice = errors.New("invoices: duplicate invoice")

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the ambient transaction when the context carries one, otherwise
// the pool. Lets invoice writes share a transaction with aggregate writes.
func (r *Repository) q(ctx context.Context) dbtx {
	if tx, ok := db.TxFromContext(ctx); ok {
		return tx
	}
	return r.pool
}

// Get returns one invoice by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	row := r.q(ctx).QueryRow(ctx, `SELECT id, customer_id, amount, status, issued_at, created_at, updated_at
FROM invoices WHERE id = $1`, id)
	var inv Invoice
	if err := row.Scan(&inv.ID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, fmt.Errorf("invoices: get: %w", err)
	}
	return inv, nil
}

// List returns invoices matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `SELECT id, customer_id, amount, status, issued_at, created_at, updated_at FROM invoices`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY issued_at DESC, id LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.IssuedAt, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Create inserts a new invoice row.
func (r *Repository) Create(ctx context.Context, inv Invoice) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO invoices (id, customer_id, amount, status, issued_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.CustomerID, inv.Amount, inv.Status, inv.IssuedAt, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("invoices: create: %w", err)
	}
	return nil
}

// Update rewrites the mutable invoice fields.
func (r *Repository) Update(ctx context.Context, inv Invoice) error {
	tag, err := r.q(ctx).Exec(ctx, `UPDATE invoices SET customer_id = $2, amount = $3, status = $4, issued_at = $5, updated_at = $6
WHERE id = $1`, inv.ID, inv.CustomerID, inv.Amount, inv.Status, inv.IssuedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoices: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an invoice row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q(ctx).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("invoices: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
