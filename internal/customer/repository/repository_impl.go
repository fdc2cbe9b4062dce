package repository

import (
	"context"

	"github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).Preload("Products").Where("id = ?", id).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) FindByDocument(ctx context.Context, db *gorm.DB, document string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).Where("document = ?", document).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Customer, error) {
	var items []domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})

	if filter.BillingStatus != "" {
		stmt = stmt.Where("billing_status = ?", filter.BillingStatus)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListBillable returns active customers with their active subscription
// lines preloaded, for the recurring generation sweep.
func (r *repo) ListBillable(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	var items []domain.Customer
	err := db.WithContext(ctx).
		Preload("Products", "active = ?", true).
		Where("billing_status = ?", domain.BillingStatusActive).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	if customer == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET name = ?, email = ?, billing_status = ?, invoice_generation_option = ?,
		     customer_invoice_date = ?, bill_due_date = ?, reference_start_date = ?, reference_end_date = ?,
		     street = ?, number = ?, complement = ?, neighborhood = ?, city = ?, state = ?, zip_code = ?,
		     updated_at = ?
		 WHERE id = ?`,
		customer.Name,
		customer.Email,
		customer.BillingStatus,
		customer.InvoiceGenerationOption,
		customer.CustomerInvoiceDate,
		customer.BillDueDate,
		customer.ReferenceStartDate,
		customer.ReferenceEndDate,
		customer.Street,
		customer.Number,
		customer.Complement,
		customer.Neighborhood,
		customer.City,
		customer.State,
		customer.ZipCode,
		customer.UpdatedAt,
		customer.ID,
	).Error
}

func (r *repo) AddProduct(ctx context.Context, db *gorm.DB, link *domain.CustomerProduct) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) RemoveProduct(ctx context.Context, db *gorm.DB, customerID, linkID int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customer_products SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		 WHERE customer_id = ? AND id = ?`,
		customerID,
		linkID,
	).Error
}

func (r *repo) ActiveProducts(ctx context.Context, db *gorm.DB, customerID int64) ([]domain.CustomerProduct, error) {
	var items []domain.CustomerProduct
	err := db.WithContext(ctx).
		Where("customer_id = ? AND active = ?", customerID, true).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
