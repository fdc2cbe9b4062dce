package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)

	AddProduct(ctx context.Context, req AddProductRequest) (*Response, error)
	RemoveProduct(ctx context.Context, customerID, linkID string) error
}

type ListRequest struct {
	BillingStatus string
	SortBy        string
	OrderBy       string
}

type CreateRequest struct {
	Name                    string     `json:"name"`
	Document                string     `json:"document"`
	Email                   string     `json:"email"`
	BillingStatus           string     `json:"billing_status"`
	InvoiceGenerationOption string     `json:"invoice_generation_option"`
	CustomerInvoiceDate     int        `json:"customer_invoice_date"`
	BillDueDate             *time.Time `json:"bill_due_date"`
	ReferenceStartDate      *time.Time `json:"reference_start_date"`
	ReferenceEndDate        *time.Time `json:"reference_end_date"`
	Street                  string     `json:"street"`
	Number                  string     `json:"number"`
	Complement              string     `json:"complement"`
	Neighborhood            string     `json:"neighborhood"`
	City                    string     `json:"city"`
	State                   string     `json:"state"`
	ZipCode                 string     `json:"zip_code"`
}

type UpdateRequest struct {
	ID                      string     `json:"-"`
	Name                    *string    `json:"name"`
	Email                   *string    `json:"email"`
	BillingStatus           *string    `json:"billing_status"`
	InvoiceGenerationOption *string    `json:"invoice_generation_option"`
	CustomerInvoiceDate     *int       `json:"customer_invoice_date"`
	BillDueDate             *time.Time `json:"bill_due_date"`
	ReferenceStartDate      *time.Time `json:"reference_start_date"`
	ReferenceEndDate        *time.Time `json:"reference_end_date"`
	Street                  *string    `json:"street"`
	Number                  *string    `json:"number"`
	Complement              *string    `json:"complement"`
	Neighborhood            *string    `json:"neighborhood"`
	City                    *string    `json:"city"`
	State                   *string    `json:"state"`
	ZipCode                 *string    `json:"zip_code"`
}

type AddProductRequest struct {
	CustomerID string          `json:"-"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type ProductResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
}

type Response struct {
	ID                      string            `json:"id"`
	Name                    string            `json:"name"`
	Document                string            `json:"document"`
	Email                   string            `json:"email,omitempty"`
	BillingStatus           string            `json:"billing_status"`
	InvoiceGenerationOption string            `json:"invoice_generation_option"`
	CustomerInvoiceDate     int               `json:"customer_invoice_date"`
	BillDueDate             *time.Time        `json:"bill_due_date,omitempty"`
	ReferenceStartDate      *time.Time        `json:"reference_start_date,omitempty"`
	ReferenceEndDate        *time.Time        `json:"reference_end_date,omitempty"`
	Street                  string            `json:"street,omitempty"`
	Number                  string            `json:"number,omitempty"`
	Complement              string            `json:"complement,omitempty"`
	Neighborhood            string            `json:"neighborhood,omitempty"`
	City                    string            `json:"city,omitempty"`
	State                   string            `json:"state,omitempty"`
	ZipCode                 string            `json:"zip_code,omitempty"`
	Products                []ProductResponse `json:"products,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

var (
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidDocument      = errors.New("invalid_document")
	ErrDuplicateDocument    = errors.New("duplicate_document")
	ErrInvalidBillingStatus = errors.New("invalid_billing_status")
	ErrInvalidGeneration    = errors.New("invalid_invoice_generation_option")
	ErrInvalidInvoiceDate   = errors.New("invalid_customer_invoice_date")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrNotFound             = errors.New("not_found")
	ErrInvalidID            = errors.New("invalid_id")
)
