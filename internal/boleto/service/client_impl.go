package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Gustavo653/Snarf-sub000/internal/boleto/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	configdomain "github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	invoicedomain "github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	workspaceTypeBilling  = "billing"
	workspaceStatusActive = "active"

	statusLiquidated = "LIQUIDADO"
	statusWrittenOff = "BAIXADO"
)

type Params struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	InvoiceRepo invoicedomain.Repository
	ConfigSvc   configdomain.Service
}

type Client struct {
	cfg         config.GatewayConfig
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	httpClient  *http.Client
	tokens      *tokenSource
	invoiceRepo invoicedomain.Repository
	configSvc   configdomain.Service
	metrics     *metrics.BillingMetrics
}

// New builds the gateway client. With GATEWAY_DISABLED set every
// network-facing operation fails with ErrGatewayDisabled; invoice-only
// billing still works. Missing credentials otherwise fail config
// validation before this constructor runs.
func New(p Params) (domain.Gateway, error) {
	c := &Client{
		cfg:         p.Config.Gateway,
		db:          p.DB,
		log:         p.Log.Named("boleto.client"),
		clock:       p.Clock,
		invoiceRepo: p.InvoiceRepo,
		configSvc:   p.ConfigSvc,
		metrics:     metrics.Billing(),
	}

	if !p.Config.Gateway.Enabled() {
		return c, nil
	}

	httpClient, err := newMTLSClient(p.Config.Gateway)
	if err != nil {
		return nil, err
	}
	c.httpClient = httpClient
	c.tokens = newTokenSource(httpClient, p.Clock, p.Config.Gateway.Endpoint, p.Config.Gateway.ClientID, p.Config.Gateway.ClientSecret)
	return c, nil
}

func (c *Client) enabled() bool { return c.httpClient != nil }

// doJSON performs an authenticated request and decodes the response
// into out. Any non-2xx status or undecodable body becomes a
// GatewayError carrying status and body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.Endpoint, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Application-Key", c.cfg.ApplicationKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &domain.GatewayError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &domain.GatewayError{Status: resp.StatusCode, Body: string(raw)}
		}
	}
	return nil
}

// ResolveWorkspace finds the active billing workspace for the covenant,
// creating one when none exists. Resolution is idempotent and
// self-healing. The resolved id is persisted on the invoice
// configuration so later slip operations skip the list call.
func (c *Client) ResolveWorkspace(ctx context.Context) (*domain.Workspace, error) {
	if !c.enabled() {
		return nil, domain.ErrGatewayDisabled
	}

	if id, err := c.configSvc.WorkspaceID(ctx); err == nil && id != "" {
		return &domain.Workspace{
			ID:        id,
			Status:    workspaceStatusActive,
			Type:      workspaceTypeBilling,
			Covenants: []string{c.cfg.Covenant},
		}, nil
	}

	done := c.observe("resolve_workspace")
	resolved, err := c.resolveWorkspaceRemote(ctx)
	done(err)
	if err != nil {
		return nil, err
	}

	if err := c.configSvc.SaveWorkspaceID(ctx, resolved.ID); err != nil {
		c.log.Warn("persist workspace id", zap.Error(err))
	}
	return resolved, nil
}

func (c *Client) resolveWorkspaceRemote(ctx context.Context) (*domain.Workspace, error) {
	var list listWorkspacesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/workspaces", nil, &list); err != nil {
		return nil, err
	}

	for _, ws := range list.Workspaces {
		if ws.Status != workspaceStatusActive || ws.Type != workspaceTypeBilling {
			continue
		}
		for _, covenant := range ws.Covenants {
			if covenant == c.cfg.Covenant {
				return &ws, nil
			}
		}
	}

	var created domain.Workspace
	err := c.doJSON(ctx, http.MethodPost, "/workspaces", createWorkspaceRequest{
		Type:      workspaceTypeBilling,
		Covenants: []string{c.cfg.Covenant},
	}, &created)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, domain.ErrNoWorkspace
	}
	return &created, nil
}

// CreateBankSlip registers a slip for the invoice and advances it to
// billed. For invoice-only customers no network call happens at all and
// the invoice goes straight to billed with an empty barcode.
func (c *Client) CreateBankSlip(ctx context.Context, invoiceID int64) (string, error) {
	inv, err := c.loadInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	if inv.Customer.InvoiceGenerationOption == customerdomain.GenerationInvoiceOnly {
		if err := c.markBilled(ctx, inv); err != nil {
			return "", err
		}
		return "", nil
	}

	if !c.enabled() {
		return "", domain.ErrGatewayDisabled
	}

	cfg, err := c.configSvc.Load(ctx)
	if err != nil {
		return "", err
	}

	if _, err := c.ResolveWorkspace(ctx); err != nil {
		return "", err
	}

	slipReq, err := c.buildSlipRequest(inv, cfg)
	if err != nil {
		return "", err
	}

	done := c.observe("create_slip")
	var slip slipResponse
	err = c.doJSON(ctx, http.MethodPost, "/bankslips", slipReq, &slip)
	done(err)
	if err != nil {
		return "", err
	}

	inv.BankSlipOurNumber = slip.OurNumber
	inv.BankSlipBarcode = slip.Barcode
	inv.BankSlipDigitableLine = slip.DigitableLine
	if err := c.markBilled(ctx, inv); err != nil {
		return "", err
	}
	return slip.Barcode, nil
}

// CancelBankSlip issues a write-off keyed by covenant and invoice
// number. Invoice-only customers have nothing to cancel.
func (c *Client) CancelBankSlip(ctx context.Context, invoiceID int64) (string, error) {
	inv, err := c.loadInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	if inv.Customer.InvoiceGenerationOption == customerdomain.GenerationInvoiceOnly {
		return "", nil
	}
	if !c.enabled() {
		return "", domain.ErrGatewayDisabled
	}
	if inv.Number == nil {
		return "", invoicedomain.ErrNotFound
	}

	if _, err := c.ResolveWorkspace(ctx); err != nil {
		return "", err
	}

	done := c.observe("cancel_slip")
	var slip slipResponse
	err = c.doJSON(ctx, http.MethodPatch, "/bankslips/"+c.slipKey(*inv.Number), writeOffRequest{Covenant: c.cfg.Covenant}, &slip)
	done(err)
	if err != nil {
		return "", err
	}
	return slip.Barcode, nil
}

// GetBankSlipPdf asks the provider for a short-lived document link and
// fetches its bytes with a second, unauthenticated request.
func (c *Client) GetBankSlipPdf(ctx context.Context, invoiceID int64) ([]byte, error) {
	inv, err := c.loadInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !c.enabled() {
		return nil, domain.ErrGatewayDisabled
	}
	if inv.Number == nil {
		return nil, invoicedomain.ErrNotFound
	}

	done := c.observe("fetch_pdf")
	var link slipPdfLinkResponse
	err = c.doJSON(ctx, http.MethodGet, "/bankslips/"+c.slipKey(*inv.Number)+"/pdf?document="+digitsOnly(inv.Customer.Document), nil, &link)
	if err != nil {
		done(err)
		return nil, err
	}
	if link.URL == "" {
		done(err)
		return nil, &domain.GatewayError{Status: http.StatusOK, Body: "missing document url"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		done(err)
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		done(err)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		done(err)
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		gerr := &domain.GatewayError{Status: resp.StatusCode, Body: string(raw)}
		done(gerr)
		return nil, gerr
	}
	done(nil)
	return raw, nil
}

// QueryBankSlipStatus polls the provider and maps its settlement status
// onto the invoice. Unknown statuses leave the invoice untouched, so
// repeated polls are safe.
func (c *Client) QueryBankSlipStatus(ctx context.Context, invoiceID int64) error {
	inv, err := c.loadInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if !c.enabled() {
		return domain.ErrGatewayDisabled
	}
	if inv.Number == nil || inv.Status != invoicedomain.StatusBilled {
		return nil
	}

	done := c.observe("query_status")
	var status slipStatusResponse
	err = c.doJSON(ctx, http.MethodGet, "/bankslips/"+c.slipKey(*inv.Number), nil, &status)
	done(err)
	if err != nil {
		return err
	}

	now := c.clock.Now()
	switch status.Status {
	case statusLiquidated:
		if err := inv.TransitionTo(invoicedomain.StatusPaid, now); err != nil {
			return err
		}
	case statusWrittenOff:
		if err := inv.TransitionTo(invoicedomain.StatusCancelled, now); err != nil {
			return err
		}
	default:
		c.log.Debug("provider status unchanged",
			zap.Int64("invoice_id", inv.ID),
			zap.String("status", status.Status))
		return nil
	}

	return c.invoiceRepo.Update(ctx, c.db, inv)
}

func (c *Client) loadInvoice(ctx context.Context, invoiceID int64) (*invoicedomain.Invoice, error) {
	inv, err := c.invoiceRepo.FindByID(ctx, c.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.Customer == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return inv, nil
}

func (c *Client) markBilled(ctx context.Context, inv *invoicedomain.Invoice) error {
	if err := inv.TransitionTo(invoicedomain.StatusBilled, c.clock.Now()); err != nil {
		return err
	}
	return c.invoiceRepo.Update(ctx, c.db, inv)
}

func (c *Client) buildSlipRequest(inv *invoicedomain.Invoice, cfg *configdomain.InvoiceConfiguration) (*createSlipRequest, error) {
	if inv.Number == nil {
		return nil, fmt.Errorf("invoice %d has no number assigned", inv.ID)
	}
	number := strconv.FormatInt(*inv.Number, 10)

	dueDate := inv.IssueDate
	if inv.DueDate != nil {
		dueDate = *inv.DueDate
	}

	payerDocument := digitsOnly(inv.Customer.Document)
	address := strings.TrimSpace(inv.Customer.Street + " " + inv.Customer.Number)

	return &createSlipRequest{
		Covenant:     c.cfg.Covenant,
		NsuCode:      number,
		BankNumber:   number,
		ClientNumber: number,
		DueDate:      dueDate.Format("2006-01-02"),
		Amount:       formatAmount(inv.Total()),
		Beneficiary: slipBeneficiary{
			Name:     sanitizeText(cfg.CompanyName),
			Document: digitsOnly(cfg.Document),
		},
		Payer: slipPayer{
			Name:         sanitizeText(inv.Customer.Name),
			Document:     payerDocument,
			DocumentType: documentType(payerDocument),
			Address:      sanitizeText(address),
			Neighborhood: sanitizeText(inv.Customer.Neighborhood),
			City:         sanitizeText(inv.Customer.City),
			State:        strings.ToUpper(strings.TrimSpace(inv.Customer.State)),
			ZipCode:      digitsOnly(inv.Customer.ZipCode),
		},
	}, nil
}

func (c *Client) slipKey(number int64) string {
	return c.cfg.Covenant + "." + strconv.FormatInt(number, 10)
}

// observe times a gateway operation and counts its outcome.
func (c *Client) observe(operation string) func(error) {
	start := c.clock.Now()
	return func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.metrics.IncGatewayCall(operation, result)
		c.metrics.ObserveGatewayDuration(operation, c.clock.Now().Sub(start))
	}
}
