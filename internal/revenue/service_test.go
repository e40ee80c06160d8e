package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memoryRevenueRepo struct {
	aggregates map[string]Aggregate
	rangeErr   error
	txErr      error
}

type memoryRevenueTx struct {
	repo *memoryRevenueRepo
}

func newMemoryRevenueRepo() *memoryRevenueRepo {
	return &memoryRevenueRepo{aggregates: make(map[string]Aggregate)}
}

func (r *memoryRevenueRepo) FindAggregatesByPeriodRange(ctx context.Context, start, end shared.Period) ([]Aggregate, error) {
	if r.rangeErr != nil {
		return nil, r.rangeErr
	}
	var out []Aggregate
	for _, agg := range r.aggregates {
		if agg.Period.Before(start) || agg.Period.After(end) {
			continue
		}
		out = append(out, agg)
	}
	return out, nil
}

func (r *memoryRevenueRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r.txErr != nil {
		return r.txErr
	}
	return fn(ctx, &memoryRevenueTx{repo: r})
}

func (t *memoryRevenueTx) GetAggregateForUpdate(ctx context.Context, period shared.Period) (*Aggregate, error) {
	agg, ok := t.repo.aggregates[period.String()]
	if !ok {
		return nil, nil
	}
	return &agg, nil
}

func (t *memoryRevenueTx) UpsertAggregate(ctx context.Context, agg Aggregate) error {
	t.repo.aggregates[agg.Period.String()] = agg
	return nil
}

func (t *memoryRevenueTx) DeleteAggregate(ctx context.Context, period shared.Period) error {
	delete(t.repo.aggregates, period.String())
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(repo *memoryRevenueRepo) *Service {
	return NewService(repo, nil, nil).WithClock(fixedClock(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)))
}

func TestApplyInvoiceEventCreation(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := newTestService(repo)

	err := svc.ApplyInvoiceEvent(context.Background(), InvoiceEvent{
		Kind:      EventCreated,
		InvoiceID: uuid.New(),
		Current:   snap(StatusPending, 500, "2024-03"),
	})
	require.NoError(t, err)

	agg := repo.aggregates["2024-03"]
	require.Equal(t, int64(1), agg.InvoiceCount)
	require.Equal(t, int64(500), agg.TotalAmount)
	require.Equal(t, BucketTotals{Pending: 500}, agg.Buckets)
}

func TestApplyInvoiceEventIneligibleCreationIsNoop(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := newTestService(repo)

	err := svc.ApplyInvoiceEvent(context.Background(), InvoiceEvent{
		Kind:      EventCreated,
		InvoiceID: uuid.New(),
		Current:   snap(StatusDraft, 500, "2024-03"),
	})
	require.NoError(t, err)
	require.Empty(t, repo.aggregates)
}

func TestApplyInvoiceEventDeletionCollapsesToZero(t *testing.T) {
	repo := newMemoryRevenueRepo()
	repo.aggregates["2024-03"] = Aggregate{
		Period:       shared.PeriodOf(2024, time.March),
		InvoiceCount: 1,
		TotalAmount:  500,
		Buckets:      BucketTotals{Paid: 500},
		Source:       SourceInvoiceEvents,
	}
	svc := newTestService(repo)

	err := svc.ApplyInvoiceEvent(context.Background(), InvoiceEvent{
		Kind:      EventDeleted,
		InvoiceID: uuid.New(),
		Previous:  snap(StatusPaid, 500, "2024-03"),
	})
	require.NoError(t, err)
	// Row removed, not zeroed.
	_, exists := repo.aggregates["2024-03"]
	require.False(t, exists)

	// The merge re-synthesizes a zero default for the display series.
	series := svc.RollingYear(context.Background())
	require.Len(t, series, 12)
	for _, row := range series {
		if row.Period.String() == "2024-03" {
			require.Zero(t, row.TotalAmount)
			require.Equal(t, SourceTemplateDefault, row.Source)
		}
	}
}

func TestApplyInvoiceEventUpdateWithoutAggregateFails(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := newTestService(repo)

	err := svc.ApplyInvoiceEvent(context.Background(), InvoiceEvent{
		Kind:      EventUpdated,
		InvoiceID: uuid.New(),
		Previous:  snap(StatusPending, 500, "2024-03"),
		Current:   snap(StatusPaid, 500, "2024-03"),
	})
	require.ErrorIs(t, err, ErrAggregateMissing)
	require.Empty(t, repo.aggregates)
}

func TestApplyInvoiceEventValidation(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	require.Error(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventCreated}))
	require.Error(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventDeleted}))
	require.Error(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventUpdated, Previous: snap(StatusPaid, 1, "2024-03")}))
	require.Error(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: "BOGUS"}))

	bad := snap(StatusPaid, -5, "2024-03")
	require.Error(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventCreated, Current: bad}))

	noPeriod := &InvoiceSnapshot{Status: StatusPaid, Amount: 5}
	require.ErrorIs(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventCreated, Current: noPeriod}), shared.ErrInvalidPeriod)
}

func TestApplyInvoiceEventFullLifecycle(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventCreated, InvoiceID: id, Current: snap(StatusPending, 500, "2024-03")}))
	require.NoError(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventUpdated, InvoiceID: id, Previous: snap(StatusPending, 500, "2024-03"), Current: snap(StatusPaid, 500, "2024-03")}))

	agg := repo.aggregates["2024-03"]
	require.Equal(t, BucketTotals{Paid: 500, Pending: 0}, agg.Buckets)
	require.Equal(t, int64(500), agg.TotalAmount)

	require.NoError(t, svc.ApplyInvoiceEvent(ctx, InvoiceEvent{Kind: EventUpdated, InvoiceID: id, Previous: snap(StatusPaid, 500, "2024-03"), Current: snap(StatusVoid, 500, "2024-03")}))
	_, exists := repo.aggregates["2024-03"]
	require.False(t, exists)
}

func TestRollingYearMergesStoredAggregates(t *testing.T) {
	repo := newMemoryRevenueRepo()
	repo.aggregates["2024-02"] = Aggregate{
		Period:       shared.PeriodOf(2024, time.February),
		InvoiceCount: 2,
		TotalAmount:  700,
		Buckets:      BucketTotals{Paid: 400, Pending: 300},
		Source:       SourceInvoiceEvents,
	}
	svc := newTestService(repo)

	series, stats := svc.RollingYearWithStatistics(context.Background())
	require.Len(t, series, 12)
	require.Equal(t, "2023-04", series[0].Period.String())
	require.Equal(t, "2024-03", series[11].Period.String())
	require.Equal(t, int64(700), stats.Total)
	require.Equal(t, 1, stats.MonthsWithData)
}

func TestRollingYearDegradesToDefaultsOnRepositoryError(t *testing.T) {
	repo := newMemoryRevenueRepo()
	repo.rangeErr = errors.New("connection refused")
	svc := newTestService(repo)

	series := svc.RollingYear(context.Background())
	require.Len(t, series, 12)
	for _, row := range series {
		require.Zero(t, row.TotalAmount)
		require.Equal(t, SourceTemplateDefault, row.Source)
	}
}

func TestRollingYearReturnsEmptySeriesWhenTemplateFails(t *testing.T) {
	repo := newMemoryRevenueRepo()
	svc := NewService(repo, nil, nil).WithClock(fixedClock(time.Time{}))

	series := svc.RollingYear(context.Background())
	require.NotNil(t, series)
	require.Empty(t, series)
}
