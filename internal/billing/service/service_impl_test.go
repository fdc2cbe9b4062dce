package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	customerrepository "github.com/Gustavo653/Snarf-sub000/internal/customer/repository"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoicerepository "github.com/Gustavo653/Snarf-sub000/internal/invoice/repository"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	configrepository "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/repository"
	configservice "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/service"
	jobsdomain "github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	jobsrepository "github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	jobsservice "github.com/Gustavo653/Snarf-sub000/internal/jobs/service"
	"github.com/Gustavo653/Snarf-sub000/internal/providers/pdf"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// sqlite has no FOR UPDATE; strip locking clauses from raw queries.
	stripLocks := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			newSQL := strings.ReplaceAll(sql, "FOR UPDATE OF j SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE SKIP LOCKED", "")
			newSQL = strings.ReplaceAll(newSQL, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(newSQL)
		}
	}
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_locked", stripLocks)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_locked_row", stripLocks)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&customerdomain.CustomerProduct{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoiceconfigdomain.InvoiceConfiguration{},
		&jobsdomain.Job{},
	))
	return db
}

type fixture struct {
	db      *gorm.DB
	clock   *clock.FakeClock
	node    *snowflake.Node
	svc     *Service
	cfgSvc  *configservice.Service
	invRepo invoicedomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC))

	cfgSvc := configservice.New(configservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: configrepository.Provide(),
	})
	queue := jobsservice.New(jobsservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,
		Repo:  jobsrepository.Provide(),
	})
	holder := config.NewTestBillingConfigHolder(config.BillingConfig{
		SlipCreationDelay: 30 * time.Second,
		WorkerPoolSize:    2,
		PollInterval:      time.Second,
	})
	invRepo := invoicerepository.Provide()

	svc := &Service{
		db:           db,
		log:          zap.NewNop(),
		clock:        fakeClock,
		holder:       holder,
		queue:        queue,
		invoiceRepo:  invRepo,
		customerRepo: customerrepository.Provide(),
		sequencer:    cfgSvc,
		configSvc:    cfgSvc,
		pdf:          pdf.New(),
	}
	return &fixture{db: db, clock: fakeClock, node: node, svc: svc, cfgSvc: cfgSvc, invRepo: invRepo}
}

func (f *fixture) seedConfiguration(t *testing.T, nextNumber int64) {
	t.Helper()
	require.NoError(t, f.db.Create(&invoiceconfigdomain.InvoiceConfiguration{
		ID:                1,
		NextInvoiceNumber: nextNumber,
		CompanyName:       "Snarf Servicos Ltda",
		Document:          "11222333000144",
		Email:             "faturamento@snarf.test",
	}).Error)
}

func (f *fixture) seedInvoice(t *testing.T, status invoicedomain.Status, slipNumber string) (*invoicedomain.Invoice, *customerdomain.Customer) {
	t.Helper()
	now := f.clock.Now()
	dueDate := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	refStart := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	refEnd := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	customer := &customerdomain.Customer{
		ID:                      f.node.Generate().Int64(),
		Name:                    "Acme Ltda",
		Document:                "12345678000199",
		Email:                   "billing@acme.test",
		BillingStatus:           customerdomain.BillingStatusActive,
		InvoiceGenerationOption: customerdomain.GenerationInvoiceAndBankSlip,
		CustomerInvoiceDate:     15,
		BillDueDate:             &dueDate,
		ReferenceStartDate:      &refStart,
		ReferenceEndDate:        &refEnd,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	require.NoError(t, f.db.Create(customer).Error)

	invoice := &invoicedomain.Invoice{
		ID:                f.node.Generate().Int64(),
		CustomerID:        customer.ID,
		Status:            status,
		IssueDate:         now,
		ReferenceStart:    refStart,
		ReferenceEnd:      refEnd,
		TotalAmount:       decimal.RequireFromString("150.00"),
		BankSlipOurNumber: slipNumber,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, f.db.Create(invoice).Error)
	require.NoError(t, f.db.Create(&invoicedomain.InvoiceItem{
		ID:          f.node.Generate().Int64(),
		InvoiceID:   invoice.ID,
		ProductID:   f.node.Generate().Int64(),
		Description: "Monthly subscription",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("150.00"),
	}).Error)
	return invoice, customer
}

func (f *fixture) jobs(t *testing.T) []jobsdomain.Job {
	t.Helper()
	var jobs []jobsdomain.Job
	require.NoError(t, f.db.Order("run_at asc").Find(&jobs).Error)
	return jobs
}

func invoiceIDString(id int64) string {
	return snowflake.ID(id).String()
}

func TestBillInvoiceAssignsNumberAndSchedulesChain(t *testing.T) {
	f := newFixture(t)
	f.seedConfiguration(t, 100)
	invoice, customer := f.seedInvoice(t, invoicedomain.StatusOpen, "")

	require.NoError(t, f.svc.BillInvoice(context.Background(), invoiceIDString(invoice.ID)))

	updated, err := f.invRepo.FindByID(context.Background(), f.db, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusBilling, updated.Status)
	require.NotNil(t, updated.Number)
	assert.Equal(t, int64(100), *updated.Number)
	assert.True(t, updated.IssueDate.Equal(f.clock.Now()))

	cfg, err := f.cfgSvc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(101), cfg.NextInvoiceNumber)

	var reloaded customerdomain.Customer
	require.NoError(t, f.db.First(&reloaded, customer.ID).Error)
	require.NotNil(t, reloaded.BillDueDate)
	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), reloaded.BillDueDate.UTC())
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), reloaded.ReferenceStartDate.UTC())
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), reloaded.ReferenceEndDate.UTC())

	jobs := f.jobs(t)
	require.Len(t, jobs, 2)

	var slipJob, emailJob *jobsdomain.Job
	for i := range jobs {
		switch jobs[i].Kind {
		case "billing.create_bank_slip":
			slipJob = &jobs[i]
		case "billing.send_invoice_email":
			emailJob = &jobs[i]
		}
	}
	require.NotNil(t, slipJob)
	require.NotNil(t, emailJob)
	assert.True(t, slipJob.RunAt.Equal(f.clock.Now().Add(30*time.Second)))
	require.NotNil(t, emailJob.ParentID)
	assert.Equal(t, slipJob.ID, *emailJob.ParentID)
}

func TestBillInvoiceRejectsNonOpen(t *testing.T) {
	f := newFixture(t)
	f.seedConfiguration(t, 100)
	invoice, _ := f.seedInvoice(t, invoicedomain.StatusBilled, "")

	err := f.svc.BillInvoice(context.Background(), invoiceIDString(invoice.ID))
	require.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	// A rejected billing attempt must not burn a number or leave jobs.
	cfg, loadErr := f.cfgSvc.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, int64(100), cfg.NextInvoiceNumber)
	assert.Empty(t, f.jobs(t))
}

func TestBillInvoiceRequiresConfiguration(t *testing.T) {
	f := newFixture(t)
	invoice, _ := f.seedInvoice(t, invoicedomain.StatusOpen, "")

	err := f.svc.BillInvoice(context.Background(), invoiceIDString(invoice.ID))
	require.ErrorIs(t, err, invoiceconfigdomain.ErrConfigurationMissing)

	updated, findErr := f.invRepo.FindByID(context.Background(), f.db, invoice.ID)
	require.NoError(t, findErr)
	assert.Equal(t, invoicedomain.StatusOpen, updated.Status)
}

func TestBillInvoiceUnknownInvoice(t *testing.T) {
	f := newFixture(t)
	f.seedConfiguration(t, 1)

	err := f.svc.BillInvoice(context.Background(), invoiceIDString(f.node.Generate().Int64()))
	require.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestCancelPaidInvoiceRejected(t *testing.T) {
	f := newFixture(t)
	invoice, _ := f.seedInvoice(t, invoicedomain.StatusPaid, "12345.100")

	err := f.svc.CancelInvoice(context.Background(), invoiceIDString(invoice.ID))
	require.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)

	updated, findErr := f.invRepo.FindByID(context.Background(), f.db, invoice.ID)
	require.NoError(t, findErr)
	assert.Equal(t, invoicedomain.StatusPaid, updated.Status)
	assert.Empty(t, f.jobs(t))
}

func TestCancelBilledInvoiceEnqueuesWriteOff(t *testing.T) {
	f := newFixture(t)
	invoice, _ := f.seedInvoice(t, invoicedomain.StatusBilled, "12345.100")

	require.NoError(t, f.svc.CancelInvoice(context.Background(), invoiceIDString(invoice.ID)))

	updated, err := f.invRepo.FindByID(context.Background(), f.db, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)

	jobs := f.jobs(t)
	require.Len(t, jobs, 1)
	assert.Equal(t, "billing.cancel_bank_slip", jobs[0].Kind)
}

func TestCancelOpenInvoiceSkipsRemoteWriteOff(t *testing.T) {
	f := newFixture(t)
	invoice, _ := f.seedInvoice(t, invoicedomain.StatusOpen, "")

	require.NoError(t, f.svc.CancelInvoice(context.Background(), invoiceIDString(invoice.ID)))

	updated, err := f.invRepo.FindByID(context.Background(), f.db, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusCancelled, updated.Status)
	assert.Empty(t, f.jobs(t))
}
