package service

import (
	"context"
	"strings"
	"time"

	customerdomain "github.com/Gustavo653/Snarf-sub000/internal/customer/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/invoice/domain"
	"github.com/Gustavo653/Snarf-sub000/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	repo         domain.Repository
	customerRepo customerdomain.Repository
	genID        *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		genID:        p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	if !req.ReferenceEnd.After(req.ReferenceStart) {
		return nil, domain.ErrInvalidReference
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID.Int64())
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	inv := &domain.Invoice{
		ID:             s.genID.Generate().Int64(),
		CustomerID:     customer.ID,
		Status:         domain.StatusOpen,
		IssueDate:      now,
		ReferenceStart: req.ReferenceStart,
		ReferenceEnd:   req.ReferenceEnd,
		DueDate:        req.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items, err := s.buildItems(inv.ID, req.Items, now)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	inv.TotalAmount = inv.Total()

	if err := s.repo.Create(ctx, s.db, inv); err != nil {
		return nil, err
	}

	resp := toResponse(inv)
	return &resp, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (*domain.Response, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}

	inv, err := s.repo.FindByID(ctx, s.db, invoiceID.Int64())
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.Status != domain.StatusOpen {
		return nil, domain.ErrNotOpen
	}

	now := time.Now().UTC()
	items, err := s.buildItems(inv.ID, req.Items, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceItems(ctx, s.db, inv.ID, items); err != nil {
		return nil, err
	}

	inv.Items = items
	inv.TotalAmount = inv.Total()
	inv.UpdatedAt = now
	if err := s.repo.Update(ctx, s.db, inv); err != nil {
		return nil, err
	}

	resp := toResponse(inv)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	inv, err := s.repo.FindByID(ctx, s.db, invoiceID.Int64())
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(inv)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, pagination.PageInfo, error) {
	filter := domain.ListRequest{
		Status:  strings.TrimSpace(req.Status),
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, pagination.PageInfo{}, domain.ErrInvalidID
		}
		filter.CustomerID = customerID.String()
	}

	paged := req.PageSize > 0 || req.PageToken != ""
	limit := 0
	if paged {
		limit = pagination.Pagination{PageSize: req.PageSize}.Limit()
		filter.Limit = limit + 1
		if req.PageToken != "" {
			cursor, err := pagination.DecodeCursor(req.PageToken)
			if err != nil {
				return nil, pagination.PageInfo{}, domain.ErrInvalidPageToken
			}
			filter.AfterID = cursor.ID
		}
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	var info pagination.PageInfo
	if paged {
		items, info = pagination.Trim(items, limit, func(i domain.Invoice) pagination.Cursor {
			return pagination.Cursor{ID: i.ID}
		})
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(&item))
	}
	return resp, info, nil
}

func (s *Service) buildItems(invoiceID int64, reqs []domain.ItemRequest, now time.Time) ([]domain.InvoiceItem, error) {
	items := make([]domain.InvoiceItem, 0, len(reqs))
	for _, item := range reqs {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		items = append(items, domain.InvoiceItem{
			ID:          s.genID.Generate().Int64(),
			InvoiceID:   invoiceID,
			ProductID:   productID.Int64(),
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return items, nil
}

func toResponse(inv *domain.Invoice) domain.Response {
	resp := domain.Response{
		ID:                    snowflake.ID(inv.ID).String(),
		CustomerID:            snowflake.ID(inv.CustomerID).String(),
		Number:                inv.Number,
		Status:                string(inv.Status),
		IssueDate:             inv.IssueDate,
		ReferenceStart:        inv.ReferenceStart,
		ReferenceEnd:          inv.ReferenceEnd,
		DueDate:               inv.DueDate,
		TotalAmount:           inv.TotalAmount,
		BankSlipBarcode:       inv.BankSlipBarcode,
		BankSlipDigitableLine: inv.BankSlipDigitableLine,
		CreatedAt:             inv.CreatedAt,
		UpdatedAt:             inv.UpdatedAt,
	}

	for _, item := range inv.Items {
		resp.Items = append(resp.Items, domain.ItemResponse{
			ID:          snowflake.ID(item.ID).String(),
			ProductID:   snowflake.ID(item.ProductID).String(),
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total(),
		})
	}

	return resp
}
