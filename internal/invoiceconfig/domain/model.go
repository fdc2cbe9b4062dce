package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// InvoiceConfiguration is a singleton row holding the issuer identity,
// the next invoice number and the cached gateway workspace id.
type InvoiceConfiguration struct {
	ID                int64     `json:"id" gorm:"primaryKey"`
	NextInvoiceNumber int64     `json:"next_invoice_number" gorm:"not null;default:1"`
	CompanyName       string    `json:"company_name" gorm:"type:text"`
	Document          string    `json:"document" gorm:"type:varchar(14)"`
	Email             string    `json:"email" gorm:"type:text"`
	Street            string    `json:"street" gorm:"type:text"`
	Number            string    `json:"number" gorm:"type:varchar(32)"`
	Neighborhood      string    `json:"neighborhood" gorm:"type:varchar(64)"`
	City              string    `json:"city" gorm:"type:varchar(64)"`
	State             string    `json:"state" gorm:"type:varchar(2)"`
	ZipCode           string    `json:"zip_code" gorm:"type:varchar(16)"`
	WorkspaceID       string    `json:"workspace_id" gorm:"type:varchar(64);not null;default:''"`
	CreatedAt         time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InvoiceConfiguration) TableName() string { return "invoice_configurations" }

// Sequencer hands out invoice numbers. Reservation and consumption must
// share one transaction so aborted billing never burns a number.
type Sequencer interface {
	// ReserveNextNumber reads and increments the counter inside tx,
	// holding a row lock until tx completes.
	ReserveNextNumber(ctx context.Context, tx *gorm.DB) (int64, error)
}

type Service interface {
	Get(ctx context.Context) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	// Load returns the raw singleton row for internal consumers.
	Load(ctx context.Context) (*InvoiceConfiguration, error)
	WorkspaceID(ctx context.Context) (string, error)
	SaveWorkspaceID(ctx context.Context, workspaceID string) error
}

type UpdateRequest struct {
	NextInvoiceNumber *int64  `json:"next_invoice_number"`
	CompanyName       *string `json:"company_name"`
	Document          *string `json:"document"`
	Email             *string `json:"email"`
	Street            *string `json:"street"`
	Number            *string `json:"number"`
	Neighborhood      *string `json:"neighborhood"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	ZipCode           *string `json:"zip_code"`
}

type Response struct {
	ID                string    `json:"id"`
	NextInvoiceNumber int64     `json:"next_invoice_number"`
	CompanyName       string    `json:"company_name,omitempty"`
	Document          string    `json:"document,omitempty"`
	Email             string    `json:"email,omitempty"`
	Street            string    `json:"street,omitempty"`
	Number            string    `json:"number,omitempty"`
	Neighborhood      string    `json:"neighborhood,omitempty"`
	City              string    `json:"city,omitempty"`
	State             string    `json:"state,omitempty"`
	ZipCode           string    `json:"zip_code,omitempty"`
	WorkspaceID       string    `json:"workspace_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

var (
	ErrConfigurationMissing = errors.New("invoice_configuration_missing")
	ErrInvalidNumber        = errors.New("invalid_invoice_number")
)
