package boleto

import (
	"github.com/Gustavo653/Snarf-sub000/internal/boleto/service"
	"go.uber.org/fx"
)

var Module = fx.Module("boleto.client",
	fx.Provide(service.New),
)
