// Package domain defines the background job model. Jobs live in the
// database so scheduling survives restarts and multiple workers can
// claim work without stepping on each other.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

type Job struct {
	ID         int64          `json:"id" gorm:"primaryKey"`
	Kind       string         `json:"kind" gorm:"type:varchar(64);not null"`
	Payload    datatypes.JSON `json:"payload" gorm:"type:text;not null;default:'{}'"`
	Status     Status         `json:"status" gorm:"type:varchar(16);not null;default:SCHEDULED;index:idx_jobs_claim,priority:1"`
	RunAt      time.Time      `json:"run_at" gorm:"not null;index:idx_jobs_claim,priority:2"`
	ParentID   *int64         `json:"parent_id,omitempty" gorm:"index"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	LastError  string         `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Job) TableName() string { return "jobs" }

// Handler executes one job. Errors propagate to the runner, which marks
// the job failed; failed jobs are not retried and their continuations
// never run.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Queue is the producer side of the job system.
type Queue interface {
	// Enqueue schedules a job for immediate execution.
	Enqueue(ctx context.Context, kind string, payload any) (int64, error)
	// Schedule schedules a job to run after delay.
	Schedule(ctx context.Context, kind string, payload any, delay time.Duration) (int64, error)
	// ContinueWith schedules a job that becomes runnable only after the
	// parent job succeeds.
	ContinueWith(ctx context.Context, parentID int64, kind string, payload any) (int64, error)
}

var (
	ErrUnknownKind = errors.New("unknown_job_kind")
	ErrJobNotFound = errors.New("job_not_found")
)
