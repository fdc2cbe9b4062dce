package domain

import (
	"fmt"
	"time"

	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/shopspring/decimal"
)

// Status is the invoice lifecycle state. Transitions are enforced by
// Invoice.TransitionTo; nothing else may write the status column.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusBilling   Status = "BILLING"
	StatusBilled    Status = "BILLED"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next is legal.
// Cancellation is allowed from every state except the terminal ones.
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusBilling:
		return s == StatusOpen
	case StatusBilled:
		return s == StatusBilling
	case StatusPaid:
		return s == StatusBilled
	case StatusCancelled:
		return s != StatusPaid && s != StatusCancelled
	}
	return false
}

type Invoice struct {
	ID                    int64      `json:"id" gorm:"primaryKey"`
	CustomerID            int64      `json:"customer_id" gorm:"not null;index"`
	Number                *int64     `json:"invoice_number,omitempty" gorm:"column:invoice_number;uniqueIndex"`
	Status                Status     `json:"status" gorm:"type:varchar(16);not null;default:OPEN"`
	IssueDate             time.Time  `json:"issue_date" gorm:"not null"`
	ReferenceStart        time.Time  `json:"reference_start" gorm:"not null"`
	ReferenceEnd          time.Time  `json:"reference_end" gorm:"not null"`
	DueDate               *time.Time `json:"due_date,omitempty"`
	TotalAmount           decimal.Decimal `json:"total_amount" gorm:"type:numeric(18,2);not null"`
	BankSlipOurNumber     string     `json:"bank_slip_our_number,omitempty" gorm:"type:varchar(64)"`
	BankSlipBarcode       string     `json:"bank_slip_barcode,omitempty" gorm:"type:varchar(64)"`
	BankSlipDigitableLine string     `json:"bank_slip_digitable_line,omitempty" gorm:"type:varchar(64)"`
	BilledAt              *time.Time `json:"billed_at,omitempty"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Customer *customerdomain.Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []InvoiceItem            `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

func (Invoice) TableName() string { return "invoices" }

// TransitionTo enforces the lifecycle and stamps the matching
// timestamp. Illegal transitions leave the invoice untouched.
func (i *Invoice) TransitionTo(next Status, now time.Time) error {
	if !i.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, i.Status, next)
	}
	i.Status = next
	i.UpdatedAt = now
	switch next {
	case StatusBilled:
		i.BilledAt = &now
	case StatusPaid:
		i.PaidAt = &now
	case StatusCancelled:
		i.CancelledAt = &now
	}
	return nil
}

// Total sums the line items.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.Total())
	}
	return total
}

type InvoiceItem struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	InvoiceID   int64           `json:"invoice_id" gorm:"not null;index"`
	ProductID   int64           `json:"product_id" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Quantity    int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

func (it InvoiceItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
