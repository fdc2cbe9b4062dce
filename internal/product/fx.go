package product

import (
	"github.com/Gustavo653/Snarf-sub000/internal/product/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
