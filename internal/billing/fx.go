package billing

import (
	"github.com/Gustavo653/Snarf-sub000/internal/billing/service"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/runner"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(service.New),
	fx.Provide(service.NewHandlers),
	fx.Invoke(func(r *runner.Runner, h *service.Handlers) {
		h.Register(r)
	}),
)
