// Package domain defines the billing orchestrator contract. Billing an
// invoice reserves its number synchronously and pushes slip creation
// and customer notification into the background job chain.
package domain

import "context"

// Job kinds owned by the billing pipeline. The runner routes payloads
// to the matching handler by kind.
const (
	JobKindCreateBankSlip   = "billing.create_bank_slip"
	JobKindCancelBankSlip   = "billing.cancel_bank_slip"
	JobKindQuerySlipStatus  = "billing.query_slip_status"
	JobKindSendInvoiceEmail = "billing.send_invoice_email"
)

// SlipJobPayload references the invoice a slip job operates on.
type SlipJobPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

type EmailJobPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

type Service interface {
	// BillInvoice reserves the next invoice number, moves the invoice
	// to BILLING, advances the customer's billing window one month and
	// schedules the slip-creation job with its email continuation.
	BillInvoice(ctx context.Context, id string) error
	// CancelInvoice marks the invoice cancelled immediately and, when a
	// slip was registered, enqueues a best-effort remote write-off.
	CancelInvoice(ctx context.Context, id string) error
	// RenderInvoicePdf renders the invoice document for download.
	RenderInvoicePdf(ctx context.Context, id string) ([]byte, error)
}
