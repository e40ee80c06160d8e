package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/revenue"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// RevenueApplier is the slice of the revenue engine the invoice lifecycle
// depends on.
type RevenueApplier interface {
	ApplyInvoiceEvent(ctx context.Context, event revenue.InvoiceEvent) error
}

// TxRunner executes fn inside one database transaction shared by every
// repository call made with the context fn receives.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(context.Context) error) error
}

// passthroughTx runs the callback without a transaction. Placeholder only;
// real wiring injects db.TxRunner so invoice and aggregate writes commit
// together.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Service handles the invoice lifecycle and feeds each mutation into the
// revenue engine. Every mutation runs inside a single transaction covering
// the invoice row and the aggregate row, so a failed revenue event rolls the
// invoice write back instead of leaving the two diverged.
type Service struct {
	repo    RepositoryPort
	revenue RevenueApplier
	tx      TxRunner
	logger  *slog.Logger
	clock   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, revenueSvc RevenueApplier, tx TxRunner, logger *slog.Logger) *Service {
	if tx == nil {
		tx = passthroughTx{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		revenue: revenueSvc,
		tx:      tx,
		logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Create persists a new invoice and applies the created event atomically.
func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error) {
	period, err := shared.ResolvePeriod(req.Date)
	if err != nil {
		return Invoice{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	now := s.clock()
	inv := Invoice{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Status:     revenue.InvoiceStatus(req.Status),
		IssuedAt:   period.Time(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		snapshot := inv.Snapshot()
		event := revenue.InvoiceEvent{Kind: revenue.EventCreated, InvoiceID: inv.ID, Current: &snapshot}
		if err := s.revenue.ApplyInvoiceEvent(ctx, event); err != nil {
			return fmt.Errorf("apply revenue event: %w", err)
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Update edits an invoice and applies the matching revenue events. An edit
// that moves the invoice across periods is decomposed into a deletion from
// the old period and a creation in the new one; both land in the same
// transaction as the invoice row, so a failure reverts all of it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateInvoiceRequest) (Invoice, error) {
	var next Invoice
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		previous := existing.Snapshot()

		next = existing
		if req.Amount != nil {
			next.Amount = *req.Amount
		}
		if req.Status != nil {
			next.Status = revenue.InvoiceStatus(*req.Status)
		}
		if req.Date != nil {
			period, err := shared.ResolvePeriod(*req.Date)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrValidation, err)
			}
			next.IssuedAt = period.Time()
		}
		next.UpdatedAt = s.clock()

		if err := s.repo.Update(ctx, next); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		current := next.Snapshot()
		if previous.Period.Equal(current.Period) {
			event := revenue.InvoiceEvent{Kind: revenue.EventUpdated, InvoiceID: id, Previous: &previous, Current: &current}
			if err := s.revenue.ApplyInvoiceEvent(ctx, event); err != nil {
				return fmt.Errorf("apply revenue event: %w", err)
			}
			return nil
		}

		remove := revenue.InvoiceEvent{Kind: revenue.EventDeleted, InvoiceID: id, Previous: &previous}
		if err := s.revenue.ApplyInvoiceEvent(ctx, remove); err != nil {
			return fmt.Errorf("apply revenue event: %w", err)
		}
		add := revenue.InvoiceEvent{Kind: revenue.EventCreated, InvoiceID: id, Current: &current}
		if err := s.revenue.ApplyInvoiceEvent(ctx, add); err != nil {
			return fmt.Errorf("apply revenue event: %w", err)
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return next, nil
}

// Delete removes an invoice and applies the deleted event atomically.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		previous := existing.Snapshot()
		event := revenue.InvoiceEvent{Kind: revenue.EventDeleted, InvoiceID: id, Previous: &previous}
		if err := s.revenue.ApplyInvoiceEvent(ctx, event); err != nil {
			return fmt.Errorf("apply revenue event: %w", err)
		}
		return nil
	})
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}
