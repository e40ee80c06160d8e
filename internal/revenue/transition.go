package revenue

import (
	"errors"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

var (
	// ErrAggregateMissing signals a transition that presupposes a stored
	// aggregate found none. Upstream event ordering is wrong; the update is
	// aborted rather than silently repaired.
	ErrAggregateMissing = errors.New("revenue: aggregate missing for period")
	// ErrPeriodMismatch signals an update event whose sides fall in
	// different periods. Callers must submit such moves as delete+create.
	ErrPeriodMismatch = errors.New("revenue: previous and current period differ")
	// ErrSnapshotMissing signals an event without the snapshot its kind requires.
	ErrSnapshotMissing = errors.New("revenue: invoice snapshot missing")
)

// TransitionKind enumerates the five ways an invoice mutation can affect a
// period aggregate.
type TransitionKind string

const (
	// TransitionNone covers ineligible→ineligible updates.
	TransitionNone TransitionKind = "NONE"
	// TransitionEnter covers ineligible→eligible, including creation.
	TransitionEnter TransitionKind = "ENTER"
	// TransitionLeave covers eligible→ineligible, including deletion.
	TransitionLeave TransitionKind = "LEAVE"
	// TransitionAmount covers eligible→eligible with an unchanged status.
	TransitionAmount TransitionKind = "AMOUNT"
	// TransitionSwitch covers pending↔paid moves.
	TransitionSwitch TransitionKind = "SWITCH"
)

// Transition is the classified outcome of one invoice mutation.
type Transition struct {
	Kind     TransitionKind
	Period   shared.Period
	Previous *InvoiceSnapshot
	Current  *InvoiceSnapshot
}

// ClassifyTransition maps an event's previous/current snapshots onto a
// transition kind. A missing previous snapshot (creation) counts as
// ineligible, as does a missing current snapshot (deletion).
func ClassifyTransition(previous, current *InvoiceSnapshot) (Transition, error) {
	var previousStatus *InvoiceStatus
	if previous != nil {
		previousStatus = &previous.Status
	}
	var currentStatus InvoiceStatus
	if current != nil {
		currentStatus = current.Status
	}
	change := ClassifyEligibility(previousStatus, currentStatus)
	wasEligible := change.WasEligible
	isEligible := change.IsEligible

	switch {
	case !wasEligible && !isEligible:
		period := shared.Period{}
		if current != nil {
			period = current.Period
		} else if previous != nil {
			period = previous.Period
		}
		return Transition{Kind: TransitionNone, Period: period, Previous: previous, Current: current}, nil
	case !wasEligible && isEligible:
		return Transition{Kind: TransitionEnter, Period: current.Period, Previous: previous, Current: current}, nil
	case wasEligible && !isEligible:
		return Transition{Kind: TransitionLeave, Period: previous.Period, Previous: previous, Current: current}, nil
	}

	if !previous.Period.Equal(current.Period) {
		return Transition{}, ErrPeriodMismatch
	}
	kind := TransitionAmount
	if previous.Status != current.Status {
		kind = TransitionSwitch
	}
	return Transition{Kind: kind, Period: current.Period, Previous: previous, Current: current}, nil
}

// WriteIntent is the persistence instruction produced by applying a
// transition. Each transition yields exactly zero or one intent.
type WriteIntent string

const (
	IntentNone   WriteIntent = "NONE"
	IntentUpsert WriteIntent = "UPSERT"
	IntentDelete WriteIntent = "DELETE"
)

// applyTransition computes the next aggregate state for a classified
// transition. existing is the stored aggregate for the period, nil when no
// row exists. The returned aggregate is meaningful only for IntentUpsert.
func applyTransition(existing *Aggregate, tr Transition, now time.Time) (Aggregate, WriteIntent, error) {
	switch tr.Kind {
	case TransitionNone:
		return Aggregate{}, IntentNone, nil

	case TransitionEnter:
		next := Aggregate{Period: tr.Period, Source: SourceInvoiceEvents, UpdatedAt: now}
		if existing != nil {
			next = *existing
			next.UpdatedAt = now
			next.Source = SourceInvoiceEvents
		}
		totals := afterAdd(aggregateTotals{Count: next.InvoiceCount, Total: next.TotalAmount}, tr.Current.Amount)
		next.InvoiceCount = totals.Count
		next.TotalAmount = totals.Total
		next.Buckets = ApplyBucketDelta(next.Buckets, tr.Current.Status, tr.Current.Amount)
		return next, IntentUpsert, nil

	case TransitionLeave:
		if existing == nil {
			return Aggregate{}, IntentNone, ErrAggregateMissing
		}
		next := *existing
		next.UpdatedAt = now
		next.Source = SourceInvoiceEvents
		totals := afterRemoval(aggregateTotals{Count: next.InvoiceCount, Total: next.TotalAmount}, tr.Previous.Amount)
		next.InvoiceCount = totals.Count
		next.TotalAmount = totals.Total
		next.Buckets = ApplyBucketDelta(next.Buckets, tr.Previous.Status, -tr.Previous.Amount)
		if next.InvoiceCount == 0 {
			// The row is removed outright; the template merge re-synthesizes
			// a zero entry for display.
			return next, IntentDelete, nil
		}
		return next, IntentUpsert, nil

	case TransitionAmount:
		if existing == nil {
			return Aggregate{}, IntentNone, ErrAggregateMissing
		}
		next := *existing
		next.UpdatedAt = now
		next.Source = SourceInvoiceEvents
		totals := afterAmountChange(aggregateTotals{Count: next.InvoiceCount, Total: next.TotalAmount}, tr.Previous.Amount, tr.Current.Amount)
		next.InvoiceCount = totals.Count
		next.TotalAmount = totals.Total
		next.Buckets = ApplyBucketDelta(next.Buckets, tr.Current.Status, tr.Current.Amount-tr.Previous.Amount)
		return next, IntentUpsert, nil

	case TransitionSwitch:
		if existing == nil {
			return Aggregate{}, IntentNone, ErrAggregateMissing
		}
		next := *existing
		next.UpdatedAt = now
		next.Source = SourceInvoiceEvents
		totals := afterAmountChange(aggregateTotals{Count: next.InvoiceCount, Total: next.TotalAmount}, tr.Previous.Amount, tr.Current.Amount)
		next.InvoiceCount = totals.Count
		next.TotalAmount = totals.Total
		next.Buckets = MoveBetweenBuckets(next.Buckets, BucketMove{
			FromStatus:     tr.Previous.Status,
			ToStatus:       tr.Current.Status,
			PreviousAmount: tr.Previous.Amount,
			CurrentAmount:  tr.Current.Amount,
		})
		return next, IntentUpsert, nil
	}

	return Aggregate{}, IntentNone, nil
}
