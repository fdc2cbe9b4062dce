package validator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoicerepository "github.com/Gustavo653/Snarf-sub000/internal/invoice/repository"
	jobsdomain "github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	jobsrepository "github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	jobsservice "github.com/Gustavo653/Snarf-sub000/internal/jobs/service"
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
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&jobsdomain.Job{},
	))
	return db
}

func seedInvoice(t *testing.T, db *gorm.DB, node *snowflake.Node, generation customerdomain.InvoiceGenerationOption, status invoicedomain.Status) *invoicedomain.Invoice {
	t.Helper()
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

	// Low snowflake bits differ per call; the leading ones do not.
	document := node.Generate().String()
	document = document[len(document)-14:]

	customer := &customerdomain.Customer{
		ID:                      node.Generate().Int64(),
		Name:                    "Acme Ltda",
		Document:                document,
		BillingStatus:           customerdomain.BillingStatusActive,
		InvoiceGenerationOption: generation,
	}
	require.NoError(t, db.Create(customer).Error)

	invoice := &invoicedomain.Invoice{
		ID:             node.Generate().Int64(),
		CustomerID:     customer.ID,
		Status:         status,
		IssueDate:      now,
		ReferenceStart: now,
		ReferenceEnd:   now.AddDate(0, 1, 0),
		TotalAmount:    decimal.RequireFromString("50.00"),
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

func TestSweepFansOutStatusQueries(t *testing.T) {
	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	queue := jobsservice.New(jobsservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 6, 16, 11, 0, 0, 0, time.UTC)),
		Repo:  jobsrepository.Provide(),
	})
	v := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Queue:       queue,
		InvoiceRepo: invoicerepository.Provide(),
	})

	billed1 := seedInvoice(t, db, node, customerdomain.GenerationInvoiceAndBankSlip, invoicedomain.StatusBilled)
	billed2 := seedInvoice(t, db, node, customerdomain.GenerationInvoiceAndBankSlip, invoicedomain.StatusBilled)
	// Not eligible: invoice-only customers and non-billed statuses.
	seedInvoice(t, db, node, customerdomain.GenerationInvoiceOnly, invoicedomain.StatusBilled)
	seedInvoice(t, db, node, customerdomain.GenerationInvoiceAndBankSlip, invoicedomain.StatusPaid)
	seedInvoice(t, db, node, customerdomain.GenerationInvoiceAndBankSlip, invoicedomain.StatusOpen)

	require.NoError(t, v.Sweep(context.Background()))

	var jobs []jobsdomain.Job
	require.NoError(t, db.Find(&jobs).Error)
	require.Len(t, jobs, 2)

	queued := map[int64]bool{}
	for _, job := range jobs {
		assert.Equal(t, "billing.query_slip_status", job.Kind)
		var payload struct {
			InvoiceID int64 `json:"invoice_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(job.Payload), &payload))
		queued[payload.InvoiceID] = true
	}
	assert.True(t, queued[billed1.ID])
	assert.True(t, queued[billed2.ID])
}
