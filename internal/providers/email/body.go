package email

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

var invoiceBodyTmpl = template.Must(template.New("invoice").Parse(`<html>
<body>
<p>Hello {{.CustomerName}},</p>
<p>Invoice <strong>#{{.Number}}</strong> has been issued for a total of <strong>{{.Total}}</strong>.</p>
{{if .DueDate}}<p>Payment is due on {{.DueDate}}.</p>{{end}}
{{if .HasBankSlip}}<p>The bank slip for this invoice is attached.</p>{{end}}
<p>The invoice document is attached to this message.</p>
</body>
</html>`))

type InvoiceBodyData struct {
	CustomerName string
	Number       int64
	Total        string
	DueDate      string
	HasBankSlip  bool
}

// BuildInvoiceEmailBody renders the HTML body for an issued invoice.
func BuildInvoiceEmailBody(customerName string, number int64, total decimal.Decimal, dueDate string, hasBankSlip bool) (string, error) {
	var buf bytes.Buffer
	err := invoiceBodyTmpl.Execute(&buf, InvoiceBodyData{
		CustomerName: customerName,
		Number:       number,
		Total:        total.StringFixed(2),
		DueDate:      dueDate,
		HasBankSlip:  hasBankSlip,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
