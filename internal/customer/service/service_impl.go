package service

import (
	"context"
	"strings"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	document := digitsOnly(req.Document)
	if len(document) != 11 && len(document) != 14 {
		return nil, domain.ErrInvalidDocument
	}

	status := domain.BillingStatusActive
	if req.BillingStatus != "" {
		status = domain.BillingStatus(req.BillingStatus)
		if !status.Valid() {
			return nil, domain.ErrInvalidBillingStatus
		}
	}

	generation := domain.GenerationInvoiceAndBankSlip
	if req.InvoiceGenerationOption != "" {
		generation = domain.InvoiceGenerationOption(req.InvoiceGenerationOption)
		if !generation.Valid() {
			return nil, domain.ErrInvalidGeneration
		}
	}

	invoiceDate := req.CustomerInvoiceDate
	if invoiceDate == 0 {
		invoiceDate = 1
	}
	if invoiceDate < 1 || invoiceDate > 31 {
		return nil, domain.ErrInvalidInvoiceDate
	}

	now := time.Now().UTC()
	c := &domain.Customer{
		ID:                      s.genID.Generate().Int64(),
		Name:                    name,
		Document:                document,
		Email:                   strings.TrimSpace(req.Email),
		BillingStatus:           status,
		InvoiceGenerationOption: generation,
		CustomerInvoiceDate:     invoiceDate,
		BillDueDate:             req.BillDueDate,
		ReferenceStartDate:      req.ReferenceStartDate,
		ReferenceEndDate:        req.ReferenceEndDate,
		Street:                  strings.TrimSpace(req.Street),
		Number:                  strings.TrimSpace(req.Number),
		Complement:              strings.TrimSpace(req.Complement),
		Neighborhood:            strings.TrimSpace(req.Neighborhood),
		City:                    strings.TrimSpace(req.City),
		State:                   strings.ToUpper(strings.TrimSpace(req.State)),
		ZipCode:                 digitsOnly(req.ZipCode),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := s.repo.Create(ctx, s.db, c); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateDocument
		}
		return nil, err
	}

	resp := s.toResponse(c)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	if req.BillingStatus != "" && !domain.BillingStatus(req.BillingStatus).Valid() {
		return nil, domain.ErrInvalidBillingStatus
	}

	items, err := s.repo.List(ctx, s.db, domain.ListRequest{
		BillingStatus: req.BillingStatus,
		SortBy:        strings.TrimSpace(req.SortBy),
		OrderBy:       strings.TrimSpace(req.OrderBy),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Email != nil {
		item.Email = strings.TrimSpace(*req.Email)
	}
	if req.BillingStatus != nil {
		status := domain.BillingStatus(*req.BillingStatus)
		if !status.Valid() {
			return nil, domain.ErrInvalidBillingStatus
		}
		item.BillingStatus = status
	}
	if req.InvoiceGenerationOption != nil {
		generation := domain.InvoiceGenerationOption(*req.InvoiceGenerationOption)
		if !generation.Valid() {
			return nil, domain.ErrInvalidGeneration
		}
		item.InvoiceGenerationOption = generation
	}
	if req.CustomerInvoiceDate != nil {
		if *req.CustomerInvoiceDate < 1 || *req.CustomerInvoiceDate > 31 {
			return nil, domain.ErrInvalidInvoiceDate
		}
		item.CustomerInvoiceDate = *req.CustomerInvoiceDate
	}
	if req.BillDueDate != nil {
		item.BillDueDate = req.BillDueDate
	}
	if req.ReferenceStartDate != nil {
		item.ReferenceStartDate = req.ReferenceStartDate
	}
	if req.ReferenceEndDate != nil {
		item.ReferenceEndDate = req.ReferenceEndDate
	}
	if req.Street != nil {
		item.Street = strings.TrimSpace(*req.Street)
	}
	if req.Number != nil {
		item.Number = strings.TrimSpace(*req.Number)
	}
	if req.Complement != nil {
		item.Complement = strings.TrimSpace(*req.Complement)
	}
	if req.Neighborhood != nil {
		item.Neighborhood = strings.TrimSpace(*req.Neighborhood)
	}
	if req.City != nil {
		item.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		item.State = strings.ToUpper(strings.TrimSpace(*req.State))
	}
	if req.ZipCode != nil {
		item.ZipCode = digitsOnly(*req.ZipCode)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) AddProduct(ctx context.Context, req domain.AddProductRequest) (*domain.Response, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	item, err := s.repo.FindByID(ctx, s.db, customerID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	link := &domain.CustomerProduct{
		ID:         s.genID.Generate().Int64(),
		CustomerID: item.ID,
		ProductID:  productID.Int64(),
		Quantity:   quantity,
		UnitPrice:  req.UnitPrice,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.AddProduct(ctx, s.db, link); err != nil {
		return nil, err
	}

	item.Products = append(item.Products, *link)
	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) RemoveProduct(ctx context.Context, customerID, linkID string) error {
	cid, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil {
		return domain.ErrInvalidID
	}
	lid, err := snowflake.ParseString(strings.TrimSpace(linkID))
	if err != nil {
		return domain.ErrInvalidID
	}
	return s.repo.RemoveProduct(ctx, s.db, cid.Int64(), lid.Int64())
}

func (s *Service) toResponse(c *domain.Customer) domain.Response {
	resp := domain.Response{
		ID:                      snowflake.ID(c.ID).String(),
		Name:                    c.Name,
		Document:                c.Document,
		Email:                   c.Email,
		BillingStatus:           string(c.BillingStatus),
		InvoiceGenerationOption: string(c.InvoiceGenerationOption),
		CustomerInvoiceDate:     c.CustomerInvoiceDate,
		BillDueDate:             c.BillDueDate,
		ReferenceStartDate:      c.ReferenceStartDate,
		ReferenceEndDate:        c.ReferenceEndDate,
		Street:                  c.Street,
		Number:                  c.Number,
		Complement:              c.Complement,
		Neighborhood:            c.Neighborhood,
		City:                    c.City,
		State:                   c.State,
		ZipCode:                 c.ZipCode,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}

	for _, link := range c.Products {
		resp.Products = append(resp.Products, domain.ProductResponse{
			ID:        snowflake.ID(link.ID).String(),
			ProductID: snowflake.ID(link.ProductID).String(),
			Quantity:  link.Quantity,
			UnitPrice: link.UnitPrice,
			Active:    link.Active,
		})
	}

	return resp
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
