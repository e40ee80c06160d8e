package revenue

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

var rollingYearGroup singleflight.Group

// RollingYear returns the dense 12-month revenue series ending at the
// current month. The read path never fails past this boundary: on any error
// it degrades to an all-zero series, and to an empty series when even the
// fallback template cannot be built.
func (s *Service) RollingYear(ctx context.Context) []MonthlyRevenue {
	now := s.clock()

	loader := func(ctx context.Context) (interface{}, error) {
		window, err := BuildRollingWindow(now)
		if err != nil {
			return nil, err
		}
		aggregates, err := s.repo.FindAggregatesByPeriodRange(ctx, window.StartPeriod, window.EndPeriod)
		if err != nil {
			return nil, err
		}
		return MergeWithTemplate(window.Template, aggregates), nil
	}

	series, err := s.loadRollingYear(ctx, now, loader)
	if err == nil {
		return series
	}
	s.logger.Warn("rolling year primary path failed, serving defaults", slog.Any("error", err))

	defaults, err := BuildDefaultSeries(now)
	if err != nil {
		s.logger.Error("rolling year fallback failed, serving empty series", slog.Any("error", err))
		return []MonthlyRevenue{}
	}
	return defaults
}

func (s *Service) loadRollingYear(ctx context.Context, now time.Time, loader func(context.Context) (interface{}, error)) ([]MonthlyRevenue, error) {
	anchor := now.Format("2006-01")

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]MonthlyRevenue), nil
	}

	key := s.cache.BuildKey(ctx, keyRollingYear(anchor))
	result, err, _ := rollingYearGroup.Do(key, func() (interface{}, error) {
		var series []MonthlyRevenue
		if err := s.cache.FetchJSON(ctx, key, &series, loader); err != nil {
			return nil, err
		}
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]MonthlyRevenue), nil
}

// RollingYearWithStatistics returns the dense series together with its
// summary statistics. Shares the degradation guarantees of RollingYear.
func (s *Service) RollingYearWithStatistics(ctx context.Context) ([]MonthlyRevenue, Statistics) {
	series := s.RollingYear(ctx)
	return series, CalculateStatistics(series)
}
