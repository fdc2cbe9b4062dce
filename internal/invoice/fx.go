package invoice

import (
	"github.com/Gustavo653/Snarf-sub000/internal/invoice/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
