package revenue

// ApplyBucketDelta adds a signed delta to the bucket selected by status,
// clamping the result at zero. Ineligible statuses leave the buckets
// untouched; that is a no-op, not an error.
func ApplyBucketDelta(buckets BucketTotals, status InvoiceStatus, delta int64) BucketTotals {
	switch status {
	case StatusPaid:
		buckets.Paid = clampNonNegative(buckets.Paid + delta)
	case StatusPending:
		buckets.Pending = clampNonNegative(buckets.Pending + delta)
	}
	return buckets
}

// BucketMove describes an amount moving between the two eligible buckets.
type BucketMove struct {
	FromStatus     InvoiceStatus
	ToStatus       InvoiceStatus
	PreviousAmount int64
	CurrentAmount  int64
}

// MoveBetweenBuckets removes the previous amount from the source bucket and
// adds the current amount to the destination bucket. Both steps clamp at
// zero independently.
func MoveBetweenBuckets(buckets BucketTotals, move BucketMove) BucketTotals {
	buckets = ApplyBucketDelta(buckets, move.FromStatus, -move.PreviousAmount)
	return ApplyBucketDelta(buckets, move.ToStatus, move.CurrentAmount)
}

// clampNonNegative absorbs negative results instead of erroring. Flagged as
// an accepted approximation: it hides small inconsistencies from replayed
// or out-of-order events.
func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
