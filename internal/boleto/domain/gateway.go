// Package domain defines the bank-slip gateway contract. The gateway
// issues, cancels and tracks boletos for billed invoices through a
// third-party API authenticated with a client certificate.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is keyed by invoice id. Implementations load the invoice
// graph themselves so callers never hand over stale entities.
type Gateway interface {
	// ResolveWorkspace returns the active billing workspace for the
	// configured covenant, creating one when none exists.
	ResolveWorkspace(ctx context.Context) (*Workspace, error)
	// CreateBankSlip registers a slip for the invoice and marks it
	// billed. Invoice-only customers skip the gateway entirely and the
	// returned barcode is empty.
	CreateBankSlip(ctx context.Context, invoiceID int64) (string, error)
	// CancelBankSlip writes off the slip. No-op for invoice-only
	// customers.
	CancelBankSlip(ctx context.Context, invoiceID int64) (string, error)
	// GetBankSlipPdf fetches the slip document bytes.
	GetBankSlipPdf(ctx context.Context, invoiceID int64) ([]byte, error)
	// QueryBankSlipStatus polls the provider and advances the invoice
	// to paid or cancelled when the provider reports settlement.
	QueryBankSlipStatus(ctx context.Context, invoiceID int64) error
}

type Workspace struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	Type      string   `json:"type"`
	Covenants []string `json:"covenants"`
}

// GatewayError carries the provider's HTTP status and raw body. Gateway
// calls are never retried here; retry policy belongs to the job layer.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway_error: status=%d body=%s", e.Status, e.Body)
}

var (
	ErrGatewayDisabled = errors.New("gateway_disabled")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrNoWorkspace     = errors.New("workspace_unavailable")
)
