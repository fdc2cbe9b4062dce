package service

import (
	"context"
	"strings"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/billing/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/calendar"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	jobsdomain "github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Holder       *config.BillingConfigHolder
	Queue        jobsdomain.Queue
	InvoiceRepo  invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	Sequencer    invoiceconfigdomain.Sequencer
	ConfigSvc    invoiceconfigdomain.Service
	PDF          pdf.Provider
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	holder       *config.BillingConfigHolder
	queue        jobsdomain.Queue
	invoiceRepo  invoicedomain.Repository
	customerRepo customerdomain.Repository
	sequencer    invoiceconfigdomain.Sequencer
	configSvc    invoiceconfigdomain.Service
	pdf          pdf.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		clock:        p.Clock,
		holder:       p.Holder,
		queue:        p.Queue,
		invoiceRepo:  p.InvoiceRepo,
		customerRepo: p.CustomerRepo,
		sequencer:    p.Sequencer,
		configSvc:    p.ConfigSvc,
		pdf:          p.PDF,
	}
}

func (s *Service) BillInvoice(ctx context.Context, id string) error {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.ErrInvalidID
	}

	// Sequencing cannot proceed without the configuration row, and the
	// emailed document needs the issuer identity. Fail before touching
	// the invoice.
	if _, err := s.configSvc.Load(ctx); err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindByID(ctx, tx, invoiceID.Int64())
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}
		if err := invoice.TransitionTo(invoicedomain.StatusBilling, now); err != nil {
			return err
		}

		number, err := s.sequencer.ReserveNextNumber(ctx, tx)
		if err != nil {
			return err
		}
		invoice.Number = &number
		invoice.IssueDate = now
		if err := s.invoiceRepo.Update(ctx, tx, invoice); err != nil {
			return err
		}

		customer := invoice.Customer
		if customer == nil {
			customer, err = s.customerRepo.FindByID(ctx, tx, invoice.CustomerID)
			if err != nil {
				return err
			}
			if customer == nil {
				return customerdomain.ErrNotFound
			}
		}
		advanceBillingWindow(customer, now)
		return s.customerRepo.Update(ctx, tx, customer)
	})
	if err != nil {
		return err
	}

	delay := s.holder.Get().SlipCreationDelay
	slipJobID, err := s.queue.Schedule(ctx, domain.JobKindCreateBankSlip,
		domain.SlipJobPayload{InvoiceID: invoiceID.Int64()}, delay)
	if err != nil {
		s.log.Error("schedule slip creation",
			zap.Int64("invoice_id", invoiceID.Int64()),
			zap.Error(err))
		return err
	}
	if _, err := s.queue.ContinueWith(ctx, slipJobID, domain.JobKindSendInvoiceEmail,
		domain.EmailJobPayload{InvoiceID: invoiceID.Int64()}); err != nil {
		s.log.Error("chain invoice email",
			zap.Int64("invoice_id", invoiceID.Int64()),
			zap.Int64("parent_job_id", slipJobID),
			zap.Error(err))
		return err
	}

	s.log.Info("invoice billing started",
		zap.Int64("invoice_id", invoiceID.Int64()),
		zap.Int64("slip_job_id", slipJobID))
	return nil
}

func (s *Service) CancelInvoice(ctx context.Context, id string) error {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.ErrInvalidID
	}

	now := s.clock.Now()
	var hadSlip bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindByID(ctx, tx, invoiceID.Int64())
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}
		if err := invoice.TransitionTo(invoicedomain.StatusCancelled, now); err != nil {
			return err
		}
		hadSlip = invoice.BankSlipOurNumber != ""
		return s.invoiceRepo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return err
	}

	// The remote write-off is best effort. The invoice is already
	// cancelled locally; a failed job shows up in the jobs table.
	if hadSlip {
		if _, err := s.queue.Enqueue(ctx, domain.JobKindCancelBankSlip,
			domain.SlipJobPayload{InvoiceID: invoiceID.Int64()}); err != nil {
			s.log.Error("enqueue slip write-off",
				zap.Int64("invoice_id", invoiceID.Int64()),
				zap.Error(err))
		}
	}

	s.log.Info("invoice cancelled", zap.Int64("invoice_id", invoiceID.Int64()))
	return nil
}

// advanceBillingWindow moves the customer one billing cycle forward.
// Month arithmetic clamps to the last valid day, so a Jan 31 due date
// lands on Feb 28 or 29.
// RenderInvoicePdf renders the invoice document on demand. OPEN
// invoices render too; the number and issue date stay blank until
// billing assigns them.
func (s *Service) RenderInvoicePdf(ctx context.Context, id string) ([]byte, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, s.db, invoiceID.Int64())
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	customer := invoice.Customer
	if customer == nil {
		return nil, customerdomain.ErrNotFound
	}

	configuration, err := s.configSvc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderInvoice(ctx, buildInvoiceData(configuration, invoice, customer))
}

func advanceBillingWindow(customer *customerdomain.Customer, now time.Time) {
	if customer.BillDueDate != nil {
		next := calendar.AddMonths(*customer.BillDueDate, 1)
		customer.BillDueDate = &next
	}
	if customer.ReferenceStartDate != nil {
		next := calendar.AddMonths(*customer.ReferenceStartDate, 1)
		customer.ReferenceStartDate = &next
	}
	if customer.ReferenceEndDate != nil {
		next := calendar.AddMonths(*customer.ReferenceEndDate, 1)
		customer.ReferenceEndDate = &next
	}
	customer.UpdatedAt = now
}
