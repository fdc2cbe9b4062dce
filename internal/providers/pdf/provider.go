package pdf

import "context"

type Provider interface {
	RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error)
}

type InvoiceData struct {
	IssuerName    string
	IssuerAddress string
	IssuerEmail   string

	InvoiceNumber   string
	IssueDate       string
	DueDate         string
	ReferencePeriod string

	CustomerName    string
	CustomerAddress string
	CustomerEmail   string

	DigitableLine string

	Items []InvoiceItem
	Total string
}

type InvoiceItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Amount      string
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderInvoice(ctx context.Context, data InvoiceData) ([]byte, error) {
	return nil, nil
}
