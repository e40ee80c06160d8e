package invoices

// CreateInvoiceRequest is the payload for creating an invoice.
type CreateInvoiceRequest struct {
	CustomerID int64  `json:"customerId" validate:"required,gt=0"`
	Amount     int64  `json:"amount" validate:"gte=0"`
	Status     string `json:"status" validate:"required,oneof=DRAFT PENDING PAID VOID"`
	Date       string `json:"date" validate:"required"`
}

// UpdateInvoiceRequest is the payload for editing an invoice. Absent fields
// keep their stored value.
type UpdateInvoiceRequest struct {
	Amount *int64  `json:"amount" validate:"omitempty,gte=0"`
	Status *string `json:"status" validate:"omitempty,oneof=DRAFT PENDING PAID VOID"`
	Date   *string `json:"date" validate:"omitempty"`
}
