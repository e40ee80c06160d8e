package revenue

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// InvoiceStatus enumerates invoice statuses visible to the revenue engine.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "DRAFT"
	StatusPending InvoiceStatus = "PENDING"
	StatusPaid    InvoiceStatus = "PAID"
	StatusVoid    InvoiceStatus = "VOID"
)

// CalculationSource tags how an aggregate row came to exist.
type CalculationSource string

const (
	SourceInvoiceEvents   CalculationSource = "INVOICE_EVENTS"
	SourceSeed            CalculationSource = "SEED"
	SourceTemplateDefault CalculationSource = "TEMPLATE_DEFAULT"
)

// InvoiceSnapshot carries the invoice fields relevant to revenue for one
// side of a mutation event. The engine never re-fetches invoices.
type InvoiceSnapshot struct {
	Status InvoiceStatus
	Amount int64
	Period shared.Period
}

// EventKind enumerates invoice lifecycle events.
type EventKind string

const (
	EventCreated EventKind = "CREATED"
	EventUpdated EventKind = "UPDATED"
	EventDeleted EventKind = "DELETED"
)

// InvoiceEvent is the inbound mutation contract. Previous is nil for
// CREATED events, Current is nil for DELETED events.
type InvoiceEvent struct {
	Kind      EventKind
	InvoiceID uuid.UUID
	Previous  *InvoiceSnapshot
	Current   *InvoiceSnapshot
}

// BucketTotals holds the paid and pending sub-totals of one period.
type BucketTotals struct {
	Paid    int64
	Pending int64
}

// Aggregate is the per-period revenue summary the engine maintains
// incrementally. One row per period; deleted when InvoiceCount drops to 0.
type Aggregate struct {
	Period       shared.Period
	InvoiceCount int64
	TotalAmount  int64
	Buckets      BucketTotals
	Source       CalculationSource
	UpdatedAt    time.Time
}

// MonthTemplateEntry is one slot of the rolling 12-month window. Generated
// fresh per request, never persisted.
type MonthTemplateEntry struct {
	Period       shared.Period
	DisplayOrder int
	MonthNumber  int
	Year         int
	MonthAbbrev  string
}

// MonthlyRevenue is the read model for one month of the dense series.
type MonthlyRevenue struct {
	Period        shared.Period     `json:"period"`
	DisplayOrder  int               `json:"displayOrder"`
	MonthNumber   int               `json:"monthNumber"`
	Year          int               `json:"year"`
	MonthAbbrev   string            `json:"monthAbbrev"`
	InvoiceCount  int64             `json:"invoiceCount"`
	TotalAmount   int64             `json:"totalAmount"`
	PaidAmount    int64             `json:"paidAmount"`
	PendingAmount int64             `json:"pendingAmount"`
	Source        CalculationSource `json:"source"`
}

// Statistics summarises a dense rolling-year series.
type Statistics struct {
	Total          int64 `json:"total"`
	Average        int64 `json:"average"`
	Minimum        int64 `json:"minimum"`
	Maximum        int64 `json:"maximum"`
	MonthsWithData int   `json:"monthsWithData"`
}
