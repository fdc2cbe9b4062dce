package repository

import (
	"context"
	"time"

	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Invoice, error) {
	var items []domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})

	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	if filter.Limit > 0 {
		// Cursor paging walks ids newest-first; sort params are ignored.
		if filter.AfterID > 0 {
			stmt = stmt.Where("id < ?", filter.AfterID)
		}
		stmt = stmt.Order("id DESC").Limit(filter.Limit)
	} else {
		stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
			"created_at": true,
			"issue_date": true,
			"status":     true,
		})).Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if invoice == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET invoice_number = ?, status = ?, issue_date = ?, reference_start = ?, reference_end = ?,
		     due_date = ?, total_amount = ?, bank_slip_our_number = ?, bank_slip_barcode = ?,
		     bank_slip_digitable_line = ?, billed_at = ?, paid_at = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.Number,
		invoice.Status,
		invoice.IssueDate,
		invoice.ReferenceStart,
		invoice.ReferenceEnd,
		invoice.DueDate,
		invoice.TotalAmount,
		invoice.BankSlipOurNumber,
		invoice.BankSlipBarcode,
		invoice.BankSlipDigitableLine,
		invoice.BilledAt,
		invoice.PaidAt,
		invoice.CancelledAt,
		invoice.UpdatedAt,
		invoice.ID,
	).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID int64, items []domain.InvoiceItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *repo) ExistsForMonth(ctx context.Context, db *gorm.DB, customerID int64, ref time.Time) (bool, error) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0)

	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("customer_id = ? AND issue_date >= ? AND issue_date < ?", customerID, start, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ListBilledWithBankSlip(ctx context.Context, db *gorm.DB) ([]domain.Invoice, error) {
	var items []domain.Invoice
	err := db.WithContext(ctx).
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Where("invoices.status = ? AND customers.invoice_generation_option = ?",
			domain.StatusBilled, customerdomain.GenerationInvoiceAndBankSlip).
		Order("invoices.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
