package domain

import (
	"context"
	"errors"
	"time"

	"github.com/Gustavo653/Snarf-sub000/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	// Save replaces the line items of an invoice still in OPEN status.
	Save(ctx context.Context, req SaveRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, pagination.PageInfo, error)
}

type ListRequest struct {
	CustomerID string
	Status     string
	SortBy     string
	OrderBy    string
	PageToken  string
	PageSize   int

	// Resolved by the service layer from PageToken/PageSize.
	AfterID int64
	Limit   int
}

type ItemRequest struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateRequest struct {
	CustomerID     string        `json:"customer_id"`
	ReferenceStart time.Time     `json:"reference_start"`
	ReferenceEnd   time.Time     `json:"reference_end"`
	DueDate        *time.Time    `json:"due_date"`
	Items          []ItemRequest `json:"items"`
}

type SaveRequest struct {
	ID    string        `json:"-"`
	Items []ItemRequest `json:"items"`
}

type ItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type Response struct {
	ID                    string          `json:"id"`
	CustomerID            string          `json:"customer_id"`
	Number                *int64          `json:"invoice_number,omitempty"`
	Status                string          `json:"status"`
	IssueDate             time.Time       `json:"issue_date"`
	ReferenceStart        time.Time       `json:"reference_start"`
	ReferenceEnd          time.Time       `json:"reference_end"`
	DueDate               *time.Time      `json:"due_date,omitempty"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	BankSlipBarcode       string          `json:"bank_slip_barcode,omitempty"`
	BankSlipDigitableLine string          `json:"bank_slip_digitable_line,omitempty"`
	Items                 []ItemResponse  `json:"items,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

var (
	ErrNotFound          = errors.New("invoice_not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrNotOpen           = errors.New("invoice_not_open")
	ErrInvalidReference  = errors.New("invalid_reference_period")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrEmptyItems        = errors.New("empty_items")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
