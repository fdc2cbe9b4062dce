// Package runner polls the jobs table and executes claimed jobs on a
// small worker pool. Jobs are I/O bound so the pool stays small.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	"github.com/Gustavo653/Snarf-sub000/internal/observability/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Repo   repository.Repository
	Queue  domain.Queue
	Holder *config.BillingConfigHolder
}

type Runner struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    repository.Repository
	queue   domain.Queue
	holder  *config.BillingConfigHolder
	metrics *metrics.BillingMetrics
	cron    *cron.Cron

	mu       sync.RWMutex
	handlers map[string]domain.Handler

	cancel context.CancelFunc
	done   chan struct{}
}

func New(p Params) *Runner {
	return &Runner{
		db:       p.DB,
		log:      p.Log.Named("jobs.runner"),
		clock:    p.Clock,
		repo:     p.Repo,
		queue:    p.Queue,
		holder:   p.Holder,
		metrics:  metrics.Billing(),
		cron:     cron.New(),
		handlers: make(map[string]domain.Handler),
	}
}

// Register binds a handler to a job kind. Handlers must be registered
// before Start; late registrations would race the poll loop.
func (r *Runner) Register(kind string, handler domain.Handler) {
	r.mu.Lock()
	r.handlers[kind] = handler
	r.mu.Unlock()
}

// AddRecurring enqueues a job of the given kind every time the cron
// expression fires. Execution still flows through the jobs table, so a
// fleet of workers runs each firing exactly once.
func (r *Runner) AddRecurring(name, cronExpr, kind string, payload any) error {
	_, err := r.cron.AddFunc(cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := r.queue.Enqueue(ctx, kind, payload); err != nil {
			r.log.Error("enqueue recurring job",
				zap.String("name", name),
				zap.String("kind", kind),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("add recurring job %s: %w", name, err)
	}
	return nil
}

// Start launches the poll loop and the cron schedule.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.cron.Start()
	go r.loop(ctx)
}

// Stop halts polling and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	if r.cancel == nil {
		return
	}
	cronCtx := r.cron.Stop()
	r.cancel()
	<-r.done
	<-cronCtx.Done()
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	cfg := r.holder.Get()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, cfg.WorkerPoolSize)
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			r.sweepOrphans(ctx)
			r.dispatch(ctx, sem, &wg)
		}
	}
}

// dispatch drains claimable jobs until the pool is full or the queue
// runs dry.
func (r *Runner) dispatch(ctx context.Context, sem chan struct{}, wg *sync.WaitGroup) {
	for {
		select {
		case sem <- struct{}{}:
		default:
			// Pool exhausted, wait for the next tick.
			return
		}

		job := r.claim(ctx)
		if job == nil {
			<-sem
			return
		}

		wg.Add(1)
		go func(job *domain.Job) {
			defer wg.Done()
			defer func() { <-sem }()
			r.run(ctx, job)
		}(job)
	}
}

func (r *Runner) claim(ctx context.Context) *domain.Job {
	job, err := r.repo.ClaimNext(ctx, r.db, r.clock.Now())
	if err != nil {
		r.log.Error("claim job", zap.Error(err))
		return nil
	}
	return job
}

// RunOnce claims and executes a single job synchronously. Used by the
// tests and by one-shot worker invocations.
func (r *Runner) RunOnce(ctx context.Context) bool {
	if _, err := r.repo.FailOrphanedContinuations(ctx, r.db, r.clock.Now()); err != nil {
		r.log.Error("fail orphaned continuations", zap.Error(err))
	}
	job := r.claim(ctx)
	if job == nil {
		return false
	}
	r.run(ctx, job)
	return true
}

func (r *Runner) sweepOrphans(ctx context.Context) {
	n, err := r.repo.FailOrphanedContinuations(ctx, r.db, r.clock.Now())
	if err != nil {
		r.log.Error("fail orphaned continuations", zap.Error(err))
		return
	}
	if n > 0 {
		r.log.Warn("continuations skipped after parent failure", zap.Int64("count", n))
	}
}

func (r *Runner) run(ctx context.Context, job *domain.Job) {
	r.mu.RLock()
	handler, ok := r.handlers[job.Kind]
	r.mu.RUnlock()

	start := r.clock.Now()
	log := r.log.With(zap.Int64("job_id", job.ID), zap.String("kind", job.Kind))

	var err error
	if !ok {
		err = domain.ErrUnknownKind
	} else {
		err = handler(ctx, json.RawMessage(job.Payload))
	}

	now := r.clock.Now()
	r.metrics.ObserveJobDuration(job.Kind, now.Sub(start))

	if err != nil {
		r.metrics.IncJobRun(job.Kind, "failed")
		r.metrics.IncJobError(job.Kind)
		log.Error("job failed", zap.Error(err))
		if markErr := r.repo.MarkFailed(ctx, r.db, job.ID, now, err.Error()); markErr != nil {
			log.Error("mark job failed", zap.Error(markErr))
		}
		return
	}

	r.metrics.IncJobRun(job.Kind, "succeeded")
	log.Info("job succeeded", zap.Duration("took", now.Sub(start)))
	if markErr := r.repo.MarkSucceeded(ctx, r.db, job.ID, now); markErr != nil {
		log.Error("mark job succeeded", zap.Error(markErr))
	}
}
