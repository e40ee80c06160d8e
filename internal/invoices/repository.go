package invoices

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows invoice listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	Get(ctx context.Context, id uuid.UUID) (Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)
	Create(ctx context.Context, inv Invoice) error
	Update(ctx context.Context, inv Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
}
