package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingStatus controls whether recurring generation considers the
// customer at all.
type BillingStatus string

const (
	BillingStatusActive   BillingStatus = "ACTIVE"
	BillingStatusInactive BillingStatus = "INACTIVE"
	BillingStatusPaused   BillingStatus = "PAUSED"
)

func (s BillingStatus) Valid() bool {
	switch s {
	case BillingStatusActive, BillingStatusInactive, BillingStatusPaused:
		return true
	}
	return false
}

// InvoiceGenerationOption selects whether billing stops at the invoice
// or also registers a bank slip with the gateway.
type InvoiceGenerationOption string

const (
	GenerationInvoiceOnly        InvoiceGenerationOption = "INVOICE_ONLY"
	GenerationInvoiceAndBankSlip InvoiceGenerationOption = "INVOICE_AND_BANK_SLIP"
)

func (o InvoiceGenerationOption) Valid() bool {
	return o == GenerationInvoiceOnly || o == GenerationInvoiceAndBankSlip
}

type Customer struct {
	ID                      int64                   `json:"id" gorm:"primaryKey"`
	Name                    string                  `json:"name" gorm:"type:text;not null"`
	Document                string                  `json:"document" gorm:"type:varchar(14);not null;uniqueIndex"`
	Email                   string                  `json:"email" gorm:"type:text"`
	BillingStatus           BillingStatus           `json:"billing_status" gorm:"type:varchar(16);not null;default:ACTIVE"`
	InvoiceGenerationOption InvoiceGenerationOption `json:"invoice_generation_option" gorm:"type:varchar(32);not null;default:INVOICE_AND_BANK_SLIP"`
	CustomerInvoiceDate     int                     `json:"customer_invoice_date" gorm:"not null;default:1"`
	BillDueDate             *time.Time              `json:"bill_due_date,omitempty"`
	ReferenceStartDate      *time.Time              `json:"reference_start_date,omitempty"`
	ReferenceEndDate        *time.Time              `json:"reference_end_date,omitempty"`
	Street                  string                  `json:"street" gorm:"type:text"`
	Number                  string                  `json:"number" gorm:"type:varchar(32)"`
	Complement              string                  `json:"complement" gorm:"type:varchar(64)"`
	Neighborhood            string                  `json:"neighborhood" gorm:"type:varchar(64)"`
	City                    string                  `json:"city" gorm:"type:varchar(64)"`
	State                   string                  `json:"state" gorm:"type:varchar(2)"`
	ZipCode                 string                  `json:"zip_code" gorm:"type:varchar(16)"`
	CreatedAt               time.Time               `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt               time.Time               `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Products []CustomerProduct `json:"products,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Customer) TableName() string { return "customers" }

// CustomerProduct is an active subscription line that recurring
// generation turns into an invoice item each month.
type CustomerProduct struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	CustomerID int64           `json:"customer_id" gorm:"not null;index"`
	ProductID  int64           `json:"product_id" gorm:"not null"`
	Quantity   int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(18,2);not null"`
	Active     bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerProduct) TableName() string { return "customer_products" }
