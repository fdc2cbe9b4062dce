package validator

import (
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/runner"
	"go.uber.org/fx"
)

var Module = fx.Module("validator",
	fx.Provide(New),
	fx.Invoke(func(r *runner.Runner, v *Validator, holder *config.BillingConfigHolder) error {
		r.Register(JobKindDailySweep, v.Handle)
		return r.AddRecurring("bill-validation", holder.Get().ValidationCron, JobKindDailySweep, nil)
	}),
)
