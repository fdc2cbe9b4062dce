package customer

import (
	"github.com/Gustavo653/Snarf-sub000/internal/customer/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
