package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/revenue"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Invoice model.
type Invoice struct {
	ID         uuid.UUID             `json:"id"`
	CustomerID int64                 `json:"customerId"`
	Amount     int64                 `json:"amount"`
	Status     revenue.InvoiceStatus `json:"status"`
	IssuedAt   time.Time             `json:"issuedAt"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// Period returns the calendar month the invoice contributes to.
func (i Invoice) Period() shared.Period {
	return shared.NewPeriod(i.IssuedAt)
}

// Snapshot projects the invoice into the fields the revenue engine consumes.
func (i Invoice) Snapshot() revenue.InvoiceSnapshot {
	return revenue.InvoiceSnapshot{
		Status: i.Status,
		Amount: i.Amount,
		Period: i.Period(),
	}
}
