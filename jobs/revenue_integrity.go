package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/revenue"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// RevenueIntegrityJob recomputes each stored aggregate from raw invoices and
// reports drift. Read-only: the event orchestrator stays the single writer,
// this job only surfaces divergence for investigation.
type RevenueIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRevenueIntegrityJob wires dependencies for the integrity handler.
func NewRevenueIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *RevenueIntegrityJob {
	return &RevenueIntegrityJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

type recomputedAggregate struct {
	invoiceCount  int64
	totalAmount   int64
	paidAmount    int64
	pendingAmount int64
}

// Handle processes integrity scan tasks.
func (j *RevenueIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("revenue integrity: handler not configured")
	}
	var payload RevenueIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowMonths <= 0 {
		payload.WindowMonths = 12
	}

	tracker := j.metrics().Track(TaskRevenueIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("window_months", payload.WindowMonths))
	logger.Info("starting revenue integrity scan")

	now := j.now()
	end := shared.NewPeriod(now)
	start := end.AddMonths(-(payload.WindowMonths - 1))

	recomputed, err := j.recomputeFromInvoices(ctx, start, end)
	if err != nil {
		resultErr = err
		logger.Error("recompute invoice sums", slog.Any("error", err))
		return resultErr
	}
	stored, err := j.loadStoredAggregates(ctx, start, end)
	if err != nil {
		resultErr = err
		logger.Error("load stored aggregates", slog.Any("error", err))
		return resultErr
	}

	drifted := 0
	for period, want := range recomputed {
		got, ok := stored[period]
		if !ok || got != want {
			drifted++
			j.metrics().AddDrift(period, 1)
			logger.Warn("aggregate drift detected",
				slog.String("period", period),
				slog.Int64("stored_total", got.totalAmount),
				slog.Int64("recomputed_total", want.totalAmount))
		}
	}
	for period := range stored {
		if _, ok := recomputed[period]; !ok {
			// A stored row with no eligible invoices should have been deleted.
			drifted++
			j.metrics().AddDrift(period, 1)
			logger.Warn("orphan aggregate row", slog.String("period", period))
		}
	}

	logger.Info("completed revenue integrity scan", slog.Int("periods", len(recomputed)), slog.Int("drifted", drifted))
	return resultErr
}

func (j *RevenueIntegrityJob) recomputeFromInvoices(ctx context.Context, start, end shared.Period) (map[string]recomputedAggregate, error) {
	rows, err := j.Pool.Query(ctx, `SELECT date_trunc('month', issued_at)::date AS period,
  COUNT(*), COALESCE(SUM(amount), 0),
  COALESCE(SUM(amount) FILTER (WHERE status = $3), 0),
  COALESCE(SUM(amount) FILTER (WHERE status = $4), 0)
FROM invoices
WHERE status IN ($3, $4) AND issued_at >= $1 AND issued_at < $2
GROUP BY 1`, start.Time(), end.AddMonths(1).Time(), revenue.StatusPaid, revenue.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]recomputedAggregate)
	for rows.Next() {
		var periodTime time.Time
		var agg recomputedAggregate
		if err := rows.Scan(&periodTime, &agg.invoiceCount, &agg.totalAmount, &agg.paidAmount, &agg.pendingAmount); err != nil {
			return nil, err
		}
		out[shared.NewPeriod(periodTime).String()] = agg
	}
	return out, rows.Err()
}

func (j *RevenueIntegrityJob) loadStoredAggregates(ctx context.Context, start, end shared.Period) (map[string]recomputedAggregate, error) {
	rows, err := j.Pool.Query(ctx, `SELECT period, invoice_count, total_amount, total_paid_amount, total_pending_amount
FROM revenue_aggregates WHERE period >= $1 AND period <= $2`, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]recomputedAggregate)
	for rows.Next() {
		var periodTime time.Time
		var agg recomputedAggregate
		if err := rows.Scan(&periodTime, &agg.invoiceCount, &agg.totalAmount, &agg.paidAmount, &agg.pendingAmount); err != nil {
			return nil, err
		}
		out[shared.NewPeriod(periodTime).String()] = agg
	}
	return out, rows.Err()
}

func (j *RevenueIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRevenueIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskRevenueIntegrity))
}

func (j *RevenueIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *RevenueIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
