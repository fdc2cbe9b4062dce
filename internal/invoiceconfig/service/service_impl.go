package service

import (
	"context"
	"strings"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo repository.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo repository.Repository
}

func New(p Params) *Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("invoiceconfig.service"),
		repo: p.Repo,
	}
}

func ProvideService(s *Service) domain.Service { return s }

func ProvideSequencer(s *Service) domain.Sequencer { return s }

// ReserveNextNumber locks the configuration row inside tx, returns the
// current counter and advances it. If tx rolls back the increment is
// undone with it, so failed billing attempts never burn a number.
func (s *Service) ReserveNextNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	cfg, err := s.repo.GetForUpdate(ctx, tx)
	if err != nil {
		return 0, err
	}
	if cfg == nil {
		return 0, domain.ErrConfigurationMissing
	}

	number := cfg.NextInvoiceNumber
	if err := s.repo.SetNextNumber(ctx, tx, cfg.ID, number+1); err != nil {
		return 0, err
	}
	return number, nil
}

func (s *Service) Load(ctx context.Context) (*domain.InvoiceConfiguration, error) {
	cfg, err := s.repo.Get(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrConfigurationMissing
	}
	return cfg, nil
}

func (s *Service) Get(ctx context.Context) (*domain.Response, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	resp := toResponse(cfg)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		cfg.CompanyName = strings.TrimSpace(*req.CompanyName)
	}
	if req.Document != nil {
		cfg.Document = digitsOnly(*req.Document)
	}
	if req.Email != nil {
		cfg.Email = strings.TrimSpace(*req.Email)
	}
	if req.Street != nil {
		cfg.Street = strings.TrimSpace(*req.Street)
	}
	if req.Number != nil {
		cfg.Number = strings.TrimSpace(*req.Number)
	}
	if req.Neighborhood != nil {
		cfg.Neighborhood = strings.TrimSpace(*req.Neighborhood)
	}
	if req.City != nil {
		cfg.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		cfg.State = strings.ToUpper(strings.TrimSpace(*req.State))
	}
	if req.ZipCode != nil {
		cfg.ZipCode = digitsOnly(*req.ZipCode)
	}

	cfg.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, cfg); err != nil {
		return nil, err
	}

	if req.NextInvoiceNumber != nil {
		if *req.NextInvoiceNumber < 1 {
			return nil, domain.ErrInvalidNumber
		}
		// The counter moves under the same row lock the sequencer takes.
		if err := s.db.Transaction(func(tx *gorm.DB) error {
			locked, err := s.repo.GetForUpdate(ctx, tx)
			if err != nil {
				return err
			}
			if locked == nil {
				return domain.ErrConfigurationMissing
			}
			return s.repo.SetNextNumber(ctx, tx, locked.ID, *req.NextInvoiceNumber)
		}); err != nil {
			return nil, err
		}
		cfg.NextInvoiceNumber = *req.NextInvoiceNumber
	}

	resp := toResponse(cfg)
	return &resp, nil
}

func (s *Service) WorkspaceID(ctx context.Context) (string, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return cfg.WorkspaceID, nil
}

func (s *Service) SaveWorkspaceID(ctx context.Context, workspaceID string) error {
	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return s.repo.SetWorkspaceID(ctx, s.db, cfg.ID, workspaceID)
}

func toResponse(cfg *domain.InvoiceConfiguration) domain.Response {
	return domain.Response{
		ID:                snowflake.ID(cfg.ID).String(),
		NextInvoiceNumber: cfg.NextInvoiceNumber,
		CompanyName:       cfg.CompanyName,
		Document:          cfg.Document,
		Email:             cfg.Email,
		Street:            cfg.Street,
		Number:            cfg.Number,
		Neighborhood:      cfg.Neighborhood,
		City:              cfg.City,
		State:             cfg.State,
		ZipCode:           cfg.ZipCode,
		WorkspaceID:       cfg.WorkspaceID,
		CreatedAt:         cfg.CreatedAt,
		UpdatedAt:         cfg.UpdatedAt,
	}
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
