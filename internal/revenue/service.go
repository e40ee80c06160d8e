package revenue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// RepositoryPort defines data access for revenue aggregates. Range reads may
// return fewer rows than months in the window; the merge step fills gaps.
type RepositoryPort interface {
	FindAggregatesByPeriodRange(ctx context.Context, start, end shared.Period) ([]Aggregate, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the per-period write operations. Implementations must
// serialize writers on a period: the transition handlers are not idempotent
// and do not tolerate lost updates.
type TxRepository interface {
	GetAggregateForUpdate(ctx context.Context, period shared.Period) (*Aggregate, error)
	UpsertAggregate(ctx context.Context, agg Aggregate) error
	DeleteAggregate(ctx context.Context, period shared.Period) error
}

// Service owns the decision of what aggregate mutation each invoice event
// produces. Persistence is delegated to the repository.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	clock  func() time.Time
}

// NewService wires the revenue engine. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// ApplyInvoiceEvent classifies one invoice mutation and persists the
// resulting aggregate change. Each event yields exactly zero or one write.
// Invariant violations (ErrAggregateMissing) are propagated so the caller
// can investigate instead of corrupting totals.
func (s *Service) ApplyInvoiceEvent(ctx context.Context, event InvoiceEvent) error {
	if err := validateEvent(event); err != nil {
		return err
	}

	tr, err := ClassifyTransition(event.Previous, event.Current)
	if err != nil {
		return err
	}
	if tr.Kind == TransitionNone {
		return nil
	}

	now := s.clock()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetAggregateForUpdate(ctx, tr.Period)
		if err != nil {
			return fmt.Errorf("revenue: load aggregate: %w", err)
		}
		next, intent, err := applyTransition(existing, tr, now)
		if err != nil {
			return err
		}
		switch intent {
		case IntentUpsert:
			return tx.UpsertAggregate(ctx, next)
		case IntentDelete:
			return tx.DeleteAggregate(ctx, tr.Period)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("applied revenue event",
		slog.String("kind", string(event.Kind)),
		slog.String("transition", string(tr.Kind)),
		slog.String("period", tr.Period.String()),
		slog.String("invoice_id", event.InvoiceID.String()))

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump revenue cache", slog.Any("error", err))
		}
	}
	return nil
}

func validateEvent(event InvoiceEvent) error {
	switch event.Kind {
	case EventCreated:
		if event.Current == nil {
			return fmt.Errorf("%w: created event without current snapshot", ErrSnapshotMissing)
		}
	case EventUpdated:
		if event.Previous == nil || event.Current == nil {
			return fmt.Errorf("%w: updated event requires both snapshots", ErrSnapshotMissing)
		}
	case EventDeleted:
		if event.Previous == nil {
			return fmt.Errorf("%w: deleted event without previous snapshot", ErrSnapshotMissing)
		}
	default:
		return fmt.Errorf("revenue: unknown event kind %q", event.Kind)
	}
	for _, snap := range []*InvoiceSnapshot{event.Previous, event.Current} {
		if snap == nil {
			continue
		}
		if snap.Amount < 0 {
			return fmt.Errorf("revenue: negative invoice amount %d", snap.Amount)
		}
		if snap.Period.IsZero() {
			return fmt.Errorf("%w: snapshot without period", shared.ErrInvalidPeriod)
		}
	}
	return nil
}
