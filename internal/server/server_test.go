package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	billingservice "github.com/Gustavo653/Snarf-sub000/internal/billing/service"
	boletodomain "github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	customerrepository "github.com/Gustavo653/Snarf-sub000/internal/customer/repository"
	customerservice "github.com/Gustavo653/Snarf-sub000/internal/customer/service"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	invoicerepository "github.com/Gustavo653/Snarf-sub000/internal/invoice/repository"
	invoiceservice "github.com/Gustavo653/Snarf-sub000/internal/invoice/service"
	invoiceconfigdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	configrepository "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/repository"
	configservice "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/service"
	jobsdomain "github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	jobsrepository "github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	jobsservice "github.com/Gustavo653/Snarf-sub000/internal/jobs/service"
	"github.com/Gustavo653/Snarf-sub000/internal/observability"
	productdomain "github.com/Gustavo653/Snarf-sub000/internal/product/domain"
	productrepository "github.com/Gustavo653/Snarf-sub000/internal/product/repository"
	productservice "github.com/Gustavo653/Snarf-sub000/internal/product/service"
	"github.com/Gustavo653/Snarf-sub000/internal/providers/pdf"
	"github.com/Gustavo653/Snarf-sub000/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubGateway struct {
	pdf []byte
}

func (g *stubGateway) ResolveWorkspace(ctx context.Context) (*boletodomain.Workspace, error) {
	return nil, boletodomain.ErrGatewayDisabled
}

func (g *stubGateway) CreateBankSlip(ctx context.Context, invoiceID int64) (string, error) {
	return "", boletodomain.ErrGatewayDisabled
}

func (g *stubGateway) CancelBankSlip(ctx context.Context, invoiceID int64) (string, error) {
	return "", boletodomain.ErrGatewayDisabled
}

func (g *stubGateway) GetBankSlipPdf(ctx context.Context, invoiceID int64) ([]byte, error) {
	if g.pdf == nil {
		return nil, boletodomain.ErrGatewayDisabled
	}
	return g.pdf, nil
}

func (g *stubGateway) QueryBankSlipStatus(ctx context.Context, invoiceID int64) error {
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

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
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&invoiceconfigdomain.InvoiceConfiguration{},
		&jobsdomain.Job{},
	))
	return db
}

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := openTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC))

	customerSvc := customerservice.New(customerservice.Params{
		DB: db, Log: log, GenID: node, Repo: customerrepository.Provide(),
	})
	productSvc := productservice.New(productservice.Params{
		DB: db, Log: log, GenID: node, Repo: productrepository.Provide(),
	})
	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:         invoicerepository.Provide(),
		CustomerRepo: customerrepository.Provide(),
	})
	cfgSvc := configservice.New(configservice.Params{
		DB: db, Log: log, Repo: configrepository.Provide(),
	})
	queue := jobsservice.New(jobsservice.Params{
		DB: db, Log: log, GenID: node, Clock: fakeClock,
		Repo: jobsrepository.Provide(),
	})
	billingSvc := billingservice.New(billingservice.Params{
		DB: db, Log: log, Clock: fakeClock,
		Holder: config.NewTestBillingConfigHolder(config.BillingConfig{
			SlipCreationDelay: 30 * time.Second,
			WorkerPoolSize:    2,
			PollInterval:      time.Second,
		}),
		Queue:        queue,
		InvoiceRepo:  invoicerepository.Provide(),
		CustomerRepo: customerrepository.Provide(),
		Sequencer:    cfgSvc,
		ConfigSvc:    cfgSvc,
		PDF:          pdf.New(),
	})

	engine := NewEngine(observability.Config{Environment: "test"}, log, nil)
	srv := NewServer(ServerParams{
		Gin:              engine,
		CustomerSvc:      customerSvc,
		ProductSvc:       productSvc,
		InvoiceSvc:       invoiceSvc,
		InvoiceConfigSvc: cfgSvc,
		BillingSvc:       billingSvc,
		Gateway:          &stubGateway{pdf: []byte("%PDF-1.4")},
	})
	return srv, db
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Create(&invoiceconfigdomain.InvoiceConfiguration{
		ID: 1, NextInvoiceNumber: 42, CompanyName: "Snarf Servicos Ltda",
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", map[string]any{
		"name":     "Acme Ltda",
		"document": "12.345.678/0001-99",
		"email":    "billing@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer customerdomain.Response
	decodeData(t, rec, &customer)
	assert.Equal(t, "12345678000199", customer.Document)

	rec = doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name":       "Monthly subscription",
		"unit_price": "150.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product productdomain.Response
	decodeData(t, rec, &product)

	rec = doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
		"customer_id":     customer.ID,
		"reference_start": "2026-06-01T00:00:00Z",
		"reference_end":   "2026-07-01T00:00:00Z",
		"items": []map[string]any{
			{"product_id": product.ID, "description": "Monthly subscription", "quantity": 2, "unit_price": "150.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created invoicedomain.Response
	decodeData(t, rec, &created)
	assert.Equal(t, string(invoicedomain.StatusOpen), created.Status)
	assert.Equal(t, "300.00", created.TotalAmount.StringFixed(2))

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/invoices/%s/bill", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var billed invoicedomain.Response
	decodeData(t, rec, &billed)
	assert.Equal(t, string(invoicedomain.StatusBilling), billed.Status)
	require.NotNil(t, billed.Number)
	assert.Equal(t, int64(42), *billed.Number)

	// Billing is allowed exactly once per invoice.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/invoices/%s/bill", created.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "bad_input")
}

func TestBillUnknownInvoiceReturnsNotFound(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Create(&invoiceconfigdomain.InvoiceConfiguration{
		ID: 1, NextInvoiceNumber: 1,
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/api/invoices/123456789/bill", nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "not_found")
}

func TestBillWithoutConfigurationReturnsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/invoices/123456789/bill", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "invoice_configuration_missing")
}

func TestSaveRejectedOnBilledInvoice(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Create(&invoiceconfigdomain.InvoiceConfiguration{
		ID: 1, NextInvoiceNumber: 1,
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", map[string]any{
		"name": "Acme Ltda", "document": "12345678000199",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var customer customerdomain.Response
	decodeData(t, rec, &customer)

	rec = doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
		"customer_id":     customer.ID,
		"reference_start": "2026-06-01T00:00:00Z",
		"reference_end":   "2026-07-01T00:00:00Z",
		"items": []map[string]any{
			{"product_id": "1", "description": "Line", "quantity": 1, "unit_price": "10.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var invoice invoicedomain.Response
	decodeData(t, rec, &invoice)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/invoices/%s/bill", invoice.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/invoices/%s/items", invoice.ID), map[string]any{
		"items": []map[string]any{
			{"product_id": "1", "description": "Changed", "quantity": 5, "unit_price": "1.00"},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "invoice_not_open")
}

func TestDownloadInvoicePdf(t *testing.T) {
	srv, db := newTestServer(t)
	require.NoError(t, db.Create(&invoiceconfigdomain.InvoiceConfiguration{
		ID: 1, NextInvoiceNumber: 7, CompanyName: "Snarf Servicos Ltda",
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", map[string]any{
		"name":     "Baixavel Ltda",
		"document": "45.678.912/0001-33",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer customerdomain.Response
	decodeData(t, rec, &customer)

	rec = doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name":       "Hosting",
		"unit_price": "99.90",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product productdomain.Response
	decodeData(t, rec, &product)

	rec = doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
		"customer_id":     customer.ID,
		"reference_start": "2026-06-01T00:00:00Z",
		"reference_end":   "2026-07-01T00:00:00Z",
		"items": []map[string]any{
			{"product_id": product.ID, "description": "Hosting", "quantity": 1, "unit_price": "99.90"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created invoicedomain.Response
	decodeData(t, rec, &created)

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices/"+created.ID+"/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices/987654321/pdf", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadBankSlip(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/123456789/bankslip.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", rec.Body.String())
}

func TestListInvoicesPagination(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/customers", map[string]any{
		"name":     "Paginada Ltda",
		"document": "98.765.432/0001-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var customer customerdomain.Response
	decodeData(t, rec, &customer)

	rec = doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name":       "Seat",
		"unit_price": "10.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product productdomain.Response
	decodeData(t, rec, &product)

	for i := 0; i < 5; i++ {
		rec = doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
			"customer_id":     customer.ID,
			"reference_start": "2026-06-01T00:00:00Z",
			"reference_end":   "2026-07-01T00:00:00Z",
			"items": []map[string]any{
				{"product_id": product.ID, "description": "seat", "quantity": i + 1, "unit_price": "10.00"},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	type listEnvelope struct {
		Data     []invoicedomain.Response `json:"data"`
		PageInfo pagination.PageInfo      `json:"page_info"`
	}

	var seen []string
	var page listEnvelope
	rec = doJSON(t, srv, http.MethodGet, "/api/invoices?page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	require.True(t, page.PageInfo.HasMore)
	for _, item := range page.Data {
		seen = append(seen, item.ID)
	}

	for page.PageInfo.HasMore {
		rec = doJSON(t, srv, http.MethodGet,
			"/api/invoices?page_size=2&page_token="+page.PageInfo.NextPageToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		page = listEnvelope{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		for _, item := range page.Data {
			seen = append(seen, item.ID)
		}
	}

	// All five invoices, each exactly once, newest first.
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i], seen[i-1])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices?page_token=not-base64", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
