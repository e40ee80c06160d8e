package revenue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyBucketDeltaRoutesByStatus(t *testing.T) {
	buckets := BucketTotals{}
	buckets = ApplyBucketDelta(buckets, StatusPaid, 700)
	buckets = ApplyBucketDelta(buckets, StatusPending, 500)
	require.Equal(t, BucketTotals{Paid: 700, Pending: 500}, buckets)
}

func TestApplyBucketDeltaIgnoresIneligibleStatuses(t *testing.T) {
	buckets := BucketTotals{Paid: 100, Pending: 200}
	require.Equal(t, buckets, ApplyBucketDelta(buckets, StatusDraft, 999))
	require.Equal(t, buckets, ApplyBucketDelta(buckets, StatusVoid, -999))
}

func TestApplyBucketDeltaClampsAtZero(t *testing.T) {
	buckets := BucketTotals{Paid: 100}
	buckets = ApplyBucketDelta(buckets, StatusPaid, -250)
	require.Equal(t, int64(0), buckets.Paid)
}

func TestMoveBetweenBuckets(t *testing.T) {
	buckets := BucketTotals{Pending: 500}
	buckets = MoveBetweenBuckets(buckets, BucketMove{
		FromStatus:     StatusPending,
		ToStatus:       StatusPaid,
		PreviousAmount: 500,
		CurrentAmount:  500,
	})
	require.Equal(t, BucketTotals{Paid: 500, Pending: 0}, buckets)
}

func TestMoveBetweenBucketsWithAmountChange(t *testing.T) {
	buckets := BucketTotals{Paid: 700, Pending: 300}
	buckets = MoveBetweenBuckets(buckets, BucketMove{
		FromStatus:     StatusPaid,
		ToStatus:       StatusPending,
		PreviousAmount: 700,
		CurrentAmount:  900,
	})
	require.Equal(t, BucketTotals{Paid: 0, Pending: 1200}, buckets)
}

// Non-negativity must hold under arbitrary operation sequences.
func TestBucketTotalsNeverGoNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	statuses := []InvoiceStatus{StatusPaid, StatusPending, StatusDraft, StatusVoid}

	buckets := BucketTotals{}
	for i := 0; i < 5000; i++ {
		if rng.Intn(2) == 0 {
			status := statuses[rng.Intn(len(statuses))]
			delta := rng.Int63n(2000) - 1000
			buckets = ApplyBucketDelta(buckets, status, delta)
		} else {
			buckets = MoveBetweenBuckets(buckets, BucketMove{
				FromStatus:     statuses[rng.Intn(len(statuses))],
				ToStatus:       statuses[rng.Intn(len(statuses))],
				PreviousAmount: rng.Int63n(1000),
				CurrentAmount:  rng.Int63n(1000),
			})
		}
		require.GreaterOrEqual(t, buckets.Paid, int64(0), "iteration %d", i)
		require.GreaterOrEqual(t, buckets.Pending, int64(0), "iteration %d", i)
	}
}
