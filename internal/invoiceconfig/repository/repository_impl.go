package repository

import (
	"context"

	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB) (*domain.InvoiceConfiguration, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB) (*domain.InvoiceConfiguration, error)
	SetNextNumber(ctx context.Context, tx *gorm.DB, id, next int64) error
	Update(ctx context.Context, db *gorm.DB, cfg *domain.InvoiceConfiguration) error
	SetWorkspaceID(ctx context.Context, db *gorm.DB, id int64, workspaceID string) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB) (*domain.InvoiceConfiguration, error) {
	var cfg domain.InvoiceConfiguration
	err := db.WithContext(ctx).Order("id ASC").First(&cfg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// GetForUpdate locks the configuration row for the duration of tx so
// concurrent reservations serialize instead of duplicating numbers.
func (r *repo) GetForUpdate(ctx context.Context, tx *gorm.DB) (*domain.InvoiceConfiguration, error) {
	var cfg domain.InvoiceConfiguration
	err := tx.WithContext(ctx).Raw(
		`SELECT id, next_invoice_number FROM invoice_configurations ORDER BY id ASC LIMIT 1 FOR UPDATE`,
	).Scan(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.ID == 0 {
		return nil, nil
	}
	return &cfg, nil
}

func (r *repo) SetNextNumber(ctx context.Context, tx *gorm.DB, id, next int64) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE invoice_configurations SET next_invoice_number = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		next,
		id,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, cfg *domain.InvoiceConfiguration) error {
	if cfg == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_configurations
		 SET company_name = ?, document = ?, email = ?, street = ?, number = ?,
		     neighborhood = ?, city = ?, state = ?, zip_code = ?, updated_at = ?
		 WHERE id = ?`,
		cfg.CompanyName,
		cfg.Document,
		cfg.Email,
		cfg.Street,
		cfg.Number,
		cfg.Neighborhood,
		cfg.City,
		cfg.State,
		cfg.ZipCode,
		cfg.UpdatedAt,
		cfg.ID,
	).Error
}

func (r *repo) SetWorkspaceID(ctx context.Context, db *gorm.DB, id int64, workspaceID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoice_configurations SET workspace_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		workspaceID,
		id,
	).Error
}
