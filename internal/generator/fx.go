package generator

import (
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/runner"
	"go.uber.org/fx"
)

var Module = fx.Module("generator",
	fx.Provide(New),
	fx.Invoke(func(r *runner.Runner, g *Generator, holder *config.BillingConfigHolder) error {
		r.Register(JobKindDailySweep, g.Handle)
		return r.AddRecurring("invoice-generation", holder.Get().GenerationCron, JobKindDailySweep, nil)
	}),
)
