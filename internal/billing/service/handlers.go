package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gustavo653/Snarf-sub000/internal/billing/domain"
	boletodomain "github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/runner"
	"github.com/Gustavo653/Snarf-sub000/internal/providers/email"
	"github.com/Gustavo653/Snarf-sub000/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HandlerParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Gateway     boletodomain.Gateway
	InvoiceRepo invoicedomain.Repository
	ConfigSvc   invoiceconfigdomain.Service
	Email       email.Provider
	PDF         pdf.Provider
}

// Handlers executes the billing job kinds. Failures propagate to the
// runner; a failed slip creation keeps the email continuation from
// ever running.
type Handlers struct {
	db          *gorm.DB
	log         *zap.Logger
	gateway     boletodomain.Gateway
	invoiceRepo invoicedomain.Repository
	configSvc   invoiceconfigdomain.Service
	email       email.Provider
	pdf         pdf.Provider
}

func NewHandlers(p HandlerParams) *Handlers {
	return &Handlers{
		db:          p.DB,
		log:         p.Log.Named("billing.handlers"),
		gateway:     p.Gateway,
		invoiceRepo: p.InvoiceRepo,
		configSvc:   p.ConfigSvc,
		email:       p.Email,
		pdf:         p.PDF,
	}
}

// Register binds every billing job kind on the runner.
func (h *Handlers) Register(r *runner.Runner) {
	r.Register(domain.JobKindCreateBankSlip, h.HandleCreateBankSlip)
	r.Register(domain.JobKindCancelBankSlip, h.HandleCancelBankSlip)
	r.Register(domain.JobKindQuerySlipStatus, h.HandleQuerySlipStatus)
	r.Register(domain.JobKindSendInvoiceEmail, h.HandleSendInvoiceEmail)
}

func (h *Handlers) HandleCreateBankSlip(ctx context.Context, raw json.RawMessage) error {
	var payload domain.SlipJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	_, err := h.gateway.CreateBankSlip(ctx, payload.InvoiceID)
	return err
}

func (h *Handlers) HandleCancelBankSlip(ctx context.Context, raw json.RawMessage) error {
	var payload domain.SlipJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	_, err := h.gateway.CancelBankSlip(ctx, payload.InvoiceID)
	return err
}

func (h *Handlers) HandleQuerySlipStatus(ctx context.Context, raw json.RawMessage) error {
	var payload domain.SlipJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return h.gateway.QueryBankSlipStatus(ctx, payload.InvoiceID)
}

func (h *Handlers) HandleSendInvoiceEmail(ctx context.Context, raw json.RawMessage) error {
	var payload domain.EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}

	invoice, err := h.invoiceRepo.FindByID(ctx, h.db, payload.InvoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return invoicedomain.ErrNotFound
	}
	customer := invoice.Customer
	if customer == nil {
		return customerdomain.ErrNotFound
	}
	if customer.Email == "" {
		h.log.Warn("customer has no email address, skipping notification",
			zap.Int64("invoice_id", invoice.ID),
			zap.Int64("customer_id", customer.ID))
		return nil
	}
	if invoice.Number == nil {
		return fmt.Errorf("invoice %d has no number assigned", invoice.ID)
	}

	configuration, err := h.configSvc.Load(ctx)
	if err != nil {
		return err
	}

	hasBankSlip := customer.InvoiceGenerationOption == customerdomain.GenerationInvoiceAndBankSlip

	attachments := make([]email.Attachment, 0, 2)
	invoicePdf, err := h.pdf.RenderInvoice(ctx, buildInvoiceData(configuration, invoice, customer))
	if err != nil {
		return err
	}
	if len(invoicePdf) > 0 {
		attachments = append(attachments, email.Attachment{
			Filename:    fmt.Sprintf("invoice-%d.pdf", *invoice.Number),
			ContentType: "application/pdf",
			Data:        invoicePdf,
		})
	}
	if hasBankSlip {
		slipPdf, err := h.gateway.GetBankSlipPdf(ctx, invoice.ID)
		if err != nil {
			return err
		}
		attachments = append(attachments, email.Attachment{
			Filename:    fmt.Sprintf("bank-slip-%d.pdf", *invoice.Number),
			ContentType: "application/pdf",
			Data:        slipPdf,
		})
	}

	dueDate := ""
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format("02/01/2006")
	}
	body, err := email.BuildInvoiceEmailBody(customer.Name, *invoice.Number, invoice.TotalAmount, dueDate, hasBankSlip)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Invoice #%d", *invoice.Number)
	if err := h.email.Send(ctx, []string{customer.Email}, subject, body, attachments...); err != nil {
		return err
	}

	h.log.Info("invoice email sent",
		zap.Int64("invoice_id", invoice.ID),
		zap.Int64("invoice_number", *invoice.Number),
		zap.Bool("bank_slip_attached", hasBankSlip))
	return nil
}

func buildInvoiceData(cfg *invoiceconfigdomain.InvoiceConfiguration, invoice *invoicedomain.Invoice, customer *customerdomain.Customer) pdf.InvoiceData {
	number := ""
	if invoice.Number != nil {
		number = fmt.Sprintf("%d", *invoice.Number)
	}
	issueDate := ""
	if !invoice.IssueDate.IsZero() {
		issueDate = invoice.IssueDate.Format("02/01/2006")
	}

	data := pdf.InvoiceData{
		IssuerName:    cfg.CompanyName,
		IssuerAddress: formatAddress(cfg.Street, cfg.Number, cfg.Neighborhood, cfg.City, cfg.State, cfg.ZipCode),
		IssuerEmail:   cfg.Email,

		InvoiceNumber: number,
		IssueDate:     issueDate,
		ReferencePeriod: fmt.Sprintf("%s - %s",
			invoice.ReferenceStart.Format("02/01/2006"),
			invoice.ReferenceEnd.Format("02/01/2006")),

		CustomerName:    customer.Name,
		CustomerAddress: formatAddress(customer.Street, customer.Number, customer.Neighborhood, customer.City, customer.State, customer.ZipCode),
		CustomerEmail:   customer.Email,

		DigitableLine: invoice.BankSlipDigitableLine,
		Total:         invoice.TotalAmount.StringFixed(2),
	}
	if invoice.DueDate != nil {
		data.DueDate = invoice.DueDate.Format("02/01/2006")
	}
	for _, item := range invoice.Items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Amount:      item.Total().StringFixed(2),
		})
	}
	return data
}

func formatAddress(street, number, neighborhood, city, state, zipCode string) string {
	if street == "" {
		return ""
	}
	return fmt.Sprintf("%s, %s - %s, %s/%s - %s", street, number, neighborhood, city, state, zipCode)
}
