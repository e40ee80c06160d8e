package revenue

import (
	"errors"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// rollingWindowMonths is the fixed length of the revenue display window.
const rollingWindowMonths = 12

// ErrInvalidWindowAnchor indicates a rolling window could not be anchored.
var ErrInvalidWindowAnchor = errors.New("revenue: invalid window anchor time")

// RollingWindow is the freshly generated 12-month template plus its bounds.
type RollingWindow struct {
	Template    []MonthTemplateEntry
	StartPeriod shared.Period
	EndPeriod   shared.Period
}

// BuildRollingWindow generates the 12 calendar months ending at the month
// containing now, oldest first. Deterministic given now.
func BuildRollingWindow(now time.Time) (RollingWindow, error) {
	if now.IsZero() {
		return RollingWindow{}, ErrInvalidWindowAnchor
	}
	end := shared.NewPeriod(now)
	start := end.AddMonths(-(rollingWindowMonths - 1))

	template := make([]MonthTemplateEntry, 0, rollingWindowMonths)
	for i := 0; i < rollingWindowMonths; i++ {
		period := start.AddMonths(i)
		template = append(template, MonthTemplateEntry{
			Period:       period,
			DisplayOrder: i,
			MonthNumber:  int(period.Month()),
			Year:         period.Year(),
			MonthAbbrev:  period.Time().Format("Jan"),
		})
	}
	return RollingWindow{Template: template, StartPeriod: start, EndPeriod: end}, nil
}

// MergeWithTemplate projects sparse aggregates onto the template, producing
// a dense series in template order. Months without a stored aggregate get a
// zero entry tagged as a template default. Pure function; applying it twice
// to the same inputs yields identical output.
func MergeWithTemplate(template []MonthTemplateEntry, aggregates []Aggregate) []MonthlyRevenue {
	byPeriod := make(map[string]Aggregate, len(aggregates))
	for _, agg := range aggregates {
		byPeriod[agg.Period.String()] = agg
	}

	series := make([]MonthlyRevenue, 0, len(template))
	for _, entry := range template {
		row := MonthlyRevenue{
			Period:       entry.Period,
			DisplayOrder: entry.DisplayOrder,
			MonthNumber:  entry.MonthNumber,
			Year:         entry.Year,
			MonthAbbrev:  entry.MonthAbbrev,
			Source:       SourceTemplateDefault,
		}
		if agg, ok := byPeriod[entry.Period.String()]; ok {
			row.InvoiceCount = agg.InvoiceCount
			row.TotalAmount = agg.TotalAmount
			row.PaidAmount = agg.Buckets.Paid
			row.PendingAmount = agg.Buckets.Pending
			row.Source = agg.Source
		}
		series = append(series, row)
	}
	return series
}

// BuildDefaultSeries returns the all-zero dense series for the window
// anchored at now. Designated fallback when the primary read path fails.
func BuildDefaultSeries(now time.Time) ([]MonthlyRevenue, error) {
	window, err := BuildRollingWindow(now)
	if err != nil {
		return nil, err
	}
	return MergeWithTemplate(window.Template, nil), nil
}
