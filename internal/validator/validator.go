// Package validator reconciles billed invoices against the gateway. It
// fans out one status-query job per open bank slip; each query runs
// independently so one provider hiccup never stalls the rest.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	billingdomain "github.com/Gustavo653/Snarf-sub000/internal/billing/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	jobsdomain "github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const JobKindDailySweep = "validator.daily_sweep"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Queue       jobsdomain.Queue
	InvoiceRepo invoicedomain.Repository
}

type Validator struct {
	db          *gorm.DB
	log         *zap.Logger
	queue       jobsdomain.Queue
	invoiceRepo invoicedomain.Repository
}

func New(p Params) *Validator {
	return &Validator{
		db:          p.DB,
		log:         p.Log.Named("validator"),
		queue:       p.Queue,
		invoiceRepo: p.InvoiceRepo,
	}
}

// Handle is the job entry point for the reconciliation sweep.
func (v *Validator) Handle(ctx context.Context, _ json.RawMessage) error {
	return v.Sweep(ctx)
}

func (v *Validator) Sweep(ctx context.Context) error {
	invoices, err := v.invoiceRepo.ListBilledWithBankSlip(ctx, v.db)
	if err != nil {
		return err
	}

	m := metrics.Billing()
	queued := 0
	var errs []error
	for i := range invoices {
		invoice := &invoices[i]
		if _, err := v.queue.Enqueue(ctx, billingdomain.JobKindQuerySlipStatus,
			billingdomain.SlipJobPayload{InvoiceID: invoice.ID}); err != nil {
			v.log.Error("enqueue status query",
				zap.Int64("invoice_id", invoice.ID),
				zap.Error(err))
			m.IncSweepError("validation")
			errs = append(errs, fmt.Errorf("invoice %d: %w", invoice.ID, err))
			continue
		}
		queued++
	}
	m.AddSweepItems("validation", queued)

	v.log.Info("validation sweep finished",
		zap.Int("pending", len(invoices)),
		zap.Int("queued", queued))
	return errors.Join(errs...)
}
