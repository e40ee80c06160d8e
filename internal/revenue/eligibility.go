package revenue

// IsEligible reports whether a status contributes to revenue totals.
// Only PAID and PENDING invoices count; every other status is excluded.
func IsEligible(status InvoiceStatus) bool {
	return status == StatusPaid || status == StatusPending
}

// EligibilityChange captures the eligibility of both sides of an update.
type EligibilityChange struct {
	WasEligible bool
	IsEligible  bool
}

// ClassifyEligibility evaluates eligibility for a transition. A nil previous
// status (creation) is treated as ineligible.
func ClassifyEligibility(previous *InvoiceStatus, current InvoiceStatus) EligibilityChange {
	change := EligibilityChange{IsEligible: IsEligible(current)}
	if previous != nil {
		change.WasEligible = IsEligible(*previous)
	}
	return change
}
