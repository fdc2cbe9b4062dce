package invoiceconfig

import (
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoiceconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.ProvideService),
	fx.Provide(service.ProvideSequencer),
)
