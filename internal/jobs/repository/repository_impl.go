package repository

import (
	"context"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/jobs/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *domain.Job) error
	// ClaimNext picks the oldest runnable job and flips it to RUNNING
	// in one transaction. Continuations only become runnable once their
	// parent has succeeded. Returns nil when nothing is claimable.
	ClaimNext(ctx context.Context, db *gorm.DB, now time.Time) (*domain.Job, error)
	MarkSucceeded(ctx context.Context, db *gorm.DB, id int64, now time.Time) error
	MarkFailed(ctx context.Context, db *gorm.DB, id int64, now time.Time, cause string) error
	// FailOrphanedContinuations fails continuations whose parent failed,
	// so they never run and stop matching the claim query.
	FailOrphanedContinuations(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Job, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

func (r *repo) ClaimNext(ctx context.Context, db *gorm.DB, now time.Time) (*domain.Job, error) {
	var claimed *domain.Job
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		err := tx.Raw(`
			SELECT j.id, j.kind, j.payload, j.status, j.run_at, j.parent_id,
			       j.started_at, j.finished_at, j.last_error, j.created_at, j.updated_at
			FROM jobs j
			LEFT JOIN jobs parent ON parent.id = j.parent_id
			WHERE j.status = ?
			  AND j.run_at <= ?
			  AND (j.parent_id IS NULL OR parent.status = ?)
			ORDER BY j.run_at ASC
			LIMIT 1
			FOR UPDATE OF j SKIP LOCKED
		`, domain.StatusScheduled, now, domain.StatusSucceeded).Scan(&job).Error
		if err != nil {
			return err
		}
		if job.ID == 0 {
			return nil
		}

		if err := tx.Exec(`
			UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ?
		`, domain.StatusRunning, now, now, job.ID).Error; err != nil {
			return err
		}

		job.Status = domain.StatusRunning
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *repo) MarkSucceeded(ctx context.Context, db *gorm.DB, id int64, now time.Time) error {
	return db.WithContext(ctx).Exec(`
		UPDATE jobs SET status = ?, finished_at = ?, updated_at = ? WHERE id = ?
	`, domain.StatusSucceeded, now, now, id).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, id int64, now time.Time, cause string) error {
	return db.WithContext(ctx).Exec(`
		UPDATE jobs SET status = ?, finished_at = ?, last_error = ?, updated_at = ? WHERE id = ?
	`, domain.StatusFailed, now, cause, now, id).Error
}

func (r *repo) FailOrphanedContinuations(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`
		UPDATE jobs SET status = ?, finished_at = ?, last_error = ?, updated_at = ?
		WHERE status = ?
		  AND parent_id IN (SELECT id FROM jobs WHERE status = ?)
	`, domain.StatusFailed, now, "parent_failed", now, domain.StatusScheduled, domain.StatusFailed)
	return res.RowsAffected, res.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Job, error) {
	var job domain.Job
	err := db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}
