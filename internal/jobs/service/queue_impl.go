package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  repository.Repository
}

type Queue struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository
}

func New(p Params) domain.Queue {
	return &Queue{
		db:    p.DB,
		log:   p.Log.Named("jobs.queue"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (q *Queue) Enqueue(ctx context.Context, kind string, payload any) (int64, error) {
	return q.insert(ctx, kind, payload, q.clock.Now(), nil)
}

func (q *Queue) Schedule(ctx context.Context, kind string, payload any, delay time.Duration) (int64, error) {
	return q.insert(ctx, kind, payload, q.clock.Now().Add(delay), nil)
}

func (q *Queue) ContinueWith(ctx context.Context, parentID int64, kind string, payload any) (int64, error) {
	parent, err := q.repo.FindByID(ctx, q.db, parentID)
	if err != nil {
		return 0, err
	}
	if parent == nil {
		return 0, domain.ErrJobNotFound
	}
	return q.insert(ctx, kind, payload, q.clock.Now(), &parentID)
}

func (q *Queue) insert(ctx context.Context, kind string, payload any, runAt time.Time, parentID *int64) (int64, error) {
	raw := datatypes.JSON("{}")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		raw = datatypes.JSON(encoded)
	}

	now := q.clock.Now()
	job := &domain.Job{
		ID:        q.genID.Generate().Int64(),
		Kind:      kind,
		Payload:   raw,
		Status:    domain.StatusScheduled,
		RunAt:     runAt,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.repo.Insert(ctx, q.db, job); err != nil {
		return 0, err
	}

	q.log.Debug("job scheduled",
		zap.Int64("job_id", job.ID),
		zap.String("kind", kind),
		zap.Time("run_at", runAt))
	return job.ID, nil
}
