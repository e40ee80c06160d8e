package revenue

// CalculateStatistics derives summary statistics from a dense rolling-year
// series. Total sums every entry including zeros; average, minimum, and
// maximum consider only months with a non-zero amount. An all-zero series
// yields all-zero statistics by policy, minimum included.
func CalculateStatistics(series []MonthlyRevenue) Statistics {
	var stats Statistics
	for _, row := range series {
		stats.Total += row.TotalAmount
		if row.TotalAmount == 0 {
			continue
		}
		if stats.MonthsWithData == 0 {
			stats.Minimum = row.TotalAmount
			stats.Maximum = row.TotalAmount
		} else {
			if row.TotalAmount < stats.Minimum {
				stats.Minimum = row.TotalAmount
			}
			if row.TotalAmount > stats.Maximum {
				stats.Maximum = row.TotalAmount
			}
		}
		stats.MonthsWithData++
	}
	if stats.MonthsWithData > 0 {
		stats.Average = stats.Total / int64(stats.MonthsWithData)
	}
	return stats
}
