package generator

import (
	"context"
	"testing"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	customerrepository "github.com/Gustavo653/Snarf-sub000/internal/customer/repository"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoicerepository "github.com/Gustavo653/Snarf-sub000/internal/invoice/repository"
	productdomain "github.com/Gustavo653/Snarf-sub000/internal/product/domain"
	productrepository "github.com/Gustavo653/Snarf-sub000/internal/product/repository"
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

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&customerdomain.CustomerProduct{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))
	return db
}

type fixture struct {
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
	gen   *Generator
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(now)

	gen := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        fakeClock,
		GenID:        node,
		CustomerRepo: customerrepository.Provide(),
		InvoiceRepo:  invoicerepository.Provide(),
		ProductRepo:  productrepository.Provide(),
	})
	return &fixture{db: db, clock: fakeClock, node: node, gen: gen}
}

func (f *fixture) seedCustomer(t *testing.T, invoiceDay int, status customerdomain.BillingStatus, products ...*productdomain.Product) *customerdomain.Customer {
	t.Helper()
	now := f.clock.Now()
	// Snowflake IDs minted in the same millisecond share their leading
	// digits, so take the trailing ones to keep documents unique.
	id := f.node.Generate().String()
	document := id[len(id)-14:]
	dueDate := time.Date(now.Year(), now.Month(), 10, 0, 0, 0, 0, time.UTC)
	refStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	refEnd := refStart.AddDate(0, 1, 0)

	customer := &customerdomain.Customer{
		ID:                      f.node.Generate().Int64(),
		Name:                    "Acme Ltda",
		Document:                document,
		Email:                   "billing@acme.test",
		BillingStatus:           status,
		InvoiceGenerationOption: customerdomain.GenerationInvoiceAndBankSlip,
		CustomerInvoiceDate:     invoiceDay,
		BillDueDate:             &dueDate,
		ReferenceStartDate:      &refStart,
		ReferenceEndDate:        &refEnd,
	}
	require.NoError(t, f.db.Create(customer).Error)

	for _, product := range products {
		require.NoError(t, f.db.Create(&customerdomain.CustomerProduct{
			ID:         f.node.Generate().Int64(),
			CustomerID: customer.ID,
			ProductID:  product.ID,
			Quantity:   2,
			UnitPrice:  product.UnitPrice,
			Active:     true,
		}).Error)
	}
	return customer
}

func (f *fixture) seedProduct(t *testing.T, name, price string) *productdomain.Product {
	t.Helper()
	product := &productdomain.Product{
		ID:        f.node.Generate().Int64(),
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Active:    true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *fixture) invoicesFor(t *testing.T, customerID int64) []invoicedomain.Invoice {
	t.Helper()
	var invoices []invoicedomain.Invoice
	require.NoError(t, f.db.Preload("Items").Where("customer_id = ?", customerID).Find(&invoices).Error)
	return invoices
}

func TestSweepGeneratesOpenInvoiceWithSnapshot(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	product := f.seedProduct(t, "Monthly subscription", "75.00")
	customer := f.seedCustomer(t, 15, customerdomain.BillingStatusActive, product)

	require.NoError(t, f.gen.Sweep(context.Background()))

	invoices := f.invoicesFor(t, customer.ID)
	require.Len(t, invoices, 1)
	inv := invoices[0]
	assert.Equal(t, invoicedomain.StatusOpen, inv.Status)
	assert.Equal(t, "150.00", inv.TotalAmount.StringFixed(2))
	require.NotNil(t, inv.DueDate)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Monthly subscription", inv.Items[0].Description)
	assert.Equal(t, 2, inv.Items[0].Quantity)
	assert.Equal(t, "75.00", inv.Items[0].UnitPrice.StringFixed(2))

	// Later price edits must not leak into the generated invoice.
	require.NoError(t, f.db.Model(&productdomain.Product{}).
		Where("id = ?", product.ID).
		Update("unit_price", decimal.RequireFromString("99.00")).Error)
	invoices = f.invoicesFor(t, customer.ID)
	assert.Equal(t, "75.00", invoices[0].Items[0].UnitPrice.StringFixed(2))
}

func TestSweepSkipsCustomersOffTheirDay(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	product := f.seedProduct(t, "Monthly subscription", "75.00")
	customer := f.seedCustomer(t, 20, customerdomain.BillingStatusActive, product)

	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Empty(t, f.invoicesFor(t, customer.ID))
}

func TestSweepClampsInvoiceDayToMonthEnd(t *testing.T) {
	// June has 30 days, so a customer configured for day 31 bills on
	// the 30th.
	f := newFixture(t, time.Date(2026, 6, 30, 10, 0, 0, 0, time.UTC))
	product := f.seedProduct(t, "Monthly subscription", "75.00")
	customer := f.seedCustomer(t, 31, customerdomain.BillingStatusActive, product)

	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Len(t, f.invoicesFor(t, customer.ID), 1)
}

func TestSweepDoesNotGenerateTwiceInTheSameMonth(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	product := f.seedProduct(t, "Monthly subscription", "75.00")
	customer := f.seedCustomer(t, 15, customerdomain.BillingStatusActive, product)

	require.NoError(t, f.gen.Sweep(context.Background()))
	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Len(t, f.invoicesFor(t, customer.ID), 1)

	// Next month the customer is billable again.
	f.clock.Set(time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Len(t, f.invoicesFor(t, customer.ID), 2)
}

func TestSweepIgnoresInactiveCustomers(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	product := f.seedProduct(t, "Monthly subscription", "75.00")
	paused := f.seedCustomer(t, 15, customerdomain.BillingStatusPaused, product)
	inactive := f.seedCustomer(t, 15, customerdomain.BillingStatusInactive, product)

	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Empty(t, f.invoicesFor(t, paused.ID))
	assert.Empty(t, f.invoicesFor(t, inactive.ID))
}

func TestSweepSkipsCustomersWithoutActiveLines(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	customer := f.seedCustomer(t, 15, customerdomain.BillingStatusActive)

	require.NoError(t, f.gen.Sweep(context.Background()))
	assert.Empty(t, f.invoicesFor(t, customer.ID))
}
