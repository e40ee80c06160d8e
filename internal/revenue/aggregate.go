package revenue

// aggregateTotals is the count/total pair the calculators operate on.
type aggregateTotals struct {
	Count int64
	Total int64
}

// afterAdd accounts for a newly eligible invoice.
func afterAdd(t aggregateTotals, addedAmount int64) aggregateTotals {
	return aggregateTotals{Count: t.Count + 1, Total: t.Total + addedAmount}
}

// afterRemoval accounts for an invoice leaving eligibility, clamping both
// fields at zero.
func afterRemoval(t aggregateTotals, removedAmount int64) aggregateTotals {
	return aggregateTotals{
		Count: clampNonNegative(t.Count - 1),
		Total: clampNonNegative(t.Total - removedAmount),
	}
}

// afterAmountChange accounts for an eligible invoice whose amount changed.
// The invoice count is unchanged.
func afterAmountChange(t aggregateTotals, previousAmount, currentAmount int64) aggregateTotals {
	return aggregateTotals{
		Count: t.Count,
		Total: clampNonNegative(t.Total - previousAmount + currentAmount),
	}
}
