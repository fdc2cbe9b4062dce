// Package generator runs the daily recurring-invoice sweep. Each
// active customer whose effective invoice day matches today gets one
// OPEN invoice built from their active subscription lines, at most
// once per calendar month.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Gustavo653/Snarf-sub000/internal/calendar"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/observability/metrics"
	productdomain "github.com/Gustavo653/Snarf-sub000/internal/product/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobKindDailySweep is enqueued by the recurring cron entry; workers
// pick it up through the jobs table so each firing runs exactly once.
const JobKindDailySweep = "generator.daily_sweep"

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	GenID        *snowflake.Node
	CustomerRepo customerdomain.Repository
	InvoiceRepo  invoicedomain.Repository
	ProductRepo  productdomain.Repository
}

type Generator struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	customerRepo customerdomain.Repository
	invoiceRepo  invoicedomain.Repository
	productRepo  productdomain.Repository
}

func New(p Params) *Generator {
	return &Generator{
		db:           p.DB,
		log:          p.Log.Named("generator"),
		clock:        p.Clock,
		genID:        p.GenID,
		customerRepo: p.CustomerRepo,
		invoiceRepo:  p.InvoiceRepo,
		productRepo:  p.ProductRepo,
	}
}

// Handle is the job entry point for the daily sweep.
func (g *Generator) Handle(ctx context.Context, _ json.RawMessage) error {
	return g.Sweep(ctx)
}

// Sweep processes every billable customer independently. One failing
// customer never aborts the rest; the joined error surfaces through
// the job runner.
func (g *Generator) Sweep(ctx context.Context) error {
	now := g.clock.Now()
	customers, err := g.customerRepo.ListBillable(ctx, g.db)
	if err != nil {
		return err
	}

	m := metrics.Billing()
	created := 0
	var errs []error
	for i := range customers {
		customer := &customers[i]
		if calendar.EffectiveInvoiceDay(customer.CustomerInvoiceDate, now) != now.Day() {
			continue
		}
		generated, err := g.generateFor(ctx, customer)
		if err != nil {
			g.log.Error("generate invoice",
				zap.Int64("customer_id", customer.ID),
				zap.Error(err))
			m.IncSweepError("generation")
			errs = append(errs, fmt.Errorf("customer %d: %w", customer.ID, err))
			continue
		}
		if generated {
			created++
		}
	}
	m.AddSweepItems("generation", created)

	g.log.Info("generation sweep finished",
		zap.Int("customers", len(customers)),
		zap.Int("created", created),
		zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

func (g *Generator) generateFor(ctx context.Context, customer *customerdomain.Customer) (bool, error) {
	now := g.clock.Now()
	exists, err := g.invoiceRepo.ExistsForMonth(ctx, g.db, customer.ID, now)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if len(customer.Products) == 0 {
		return false, nil
	}

	refStart, refEnd := calendar.MonthWindow(now)
	if customer.ReferenceStartDate != nil && customer.ReferenceEndDate != nil {
		refStart = *customer.ReferenceStartDate
		refEnd = *customer.ReferenceEndDate
	}

	invoice := &invoicedomain.Invoice{
		ID:             g.genID.Generate().Int64(),
		CustomerID:     customer.ID,
		Status:         invoicedomain.StatusOpen,
		IssueDate:      now,
		ReferenceStart: refStart,
		ReferenceEnd:   refEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if customer.InvoiceGenerationOption == customerdomain.GenerationInvoiceAndBankSlip {
		invoice.DueDate = customer.BillDueDate
	}

	total := decimal.Zero
	for _, line := range customer.Products {
		product, err := g.productRepo.FindByID(ctx, g.db, line.ProductID)
		if err != nil {
			return false, err
		}
		description := fmt.Sprintf("product %d", line.ProductID)
		if product != nil {
			description = product.Name
		}
		// Price and quantity are snapshotted at generation time; later
		// product edits do not touch already-created invoices.
		item := invoicedomain.InvoiceItem{
			ID:          g.genID.Generate().Int64(),
			InvoiceID:   invoice.ID,
			ProductID:   line.ProductID,
			Description: description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		invoice.Items = append(invoice.Items, item)
		total = total.Add(item.Total())
	}
	invoice.TotalAmount = total

	if err := g.invoiceRepo.Create(ctx, g.db, invoice); err != nil {
		return false, err
	}
	g.log.Info("invoice generated",
		zap.Int64("customer_id", customer.ID),
		zap.Int64("invoice_id", invoice.ID),
		zap.String("total", total.StringFixed(2)))
	return true, nil
}
