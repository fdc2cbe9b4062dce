package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// FindByID returns the invoice with customer and items materialized.
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Invoice, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	// ReplaceItems deletes the current item set and inserts the new one.
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID int64, items []InvoiceItem) error
	// ExistsForMonth reports whether the customer already has an invoice
	// issued inside the month containing ref.
	ExistsForMonth(ctx context.Context, db *gorm.DB, customerID int64, ref time.Time) (bool, error)
	// ListBilledWithBankSlip returns invoices awaiting settlement whose
	// customers expect a bank slip.
	ListBilledWithBankSlip(ctx context.Context, db *gorm.DB) ([]Invoice, error)
}
