package jobs

import (
	"context"

	"github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/runner"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/service"
	"go.uber.org/fx"
)

var Module = fx.Module("jobs",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(runner.New),
	fx.Invoke(func(lc fx.Lifecycle, r *runner.Runner) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				r.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				r.Stop()
				return nil
			},
		})
	}),
)
