package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Customer, error)
	FindByDocument(ctx context.Context, db *gorm.DB, document string) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Customer, error)
	ListBillable(ctx context.Context, db *gorm.DB) ([]Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error

	AddProduct(ctx context.Context, db *gorm.DB, link *CustomerProduct) error
	RemoveProduct(ctx context.Context, db *gorm.DB, customerID, linkID int64) error
	ActiveProducts(ctx context.Context, db *gorm.DB, customerID int64) ([]CustomerProduct, error)
}
