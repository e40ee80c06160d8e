package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/revenue"
)

// RevenueWarmupJob pre-populates the rolling-year revenue cache so the first
// dashboard request after an invalidation does not pay the rebuild cost.
type RevenueWarmupJob struct {
	Revenue *revenue.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRevenueWarmupJob wires dependencies for the warmup handler.
func NewRevenueWarmupJob(revenueSvc *revenue.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *RevenueWarmupJob {
	return &RevenueWarmupJob{Revenue: revenueSvc, Logger: logger, Metrics: metrics}
}

// Handle processes revenue warmup tasks.
func (j *RevenueWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Revenue == nil {
		return errors.New("revenue warmup: handler not configured")
	}
	var payload RevenueWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskRevenueWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	if payload.Reason != "" {
		logger = logger.With(slog.String("reason", payload.Reason))
	}
	logger.Info("starting revenue warmup")

	// RollingYear populates the cache as a side effect and never fails.
	series := j.Revenue.RollingYear(ctx)
	logger.Info("completed revenue warmup", slog.Int("months", len(series)))
	return resultErr
}

func (j *RevenueWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRevenueWarmup))
	}
	return slog.Default().With(slog.String("job", TaskRevenueWarmup))
}

func (j *RevenueWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
