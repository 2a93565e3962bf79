package queue

import (
	"context"
	"time"

	"gorm.io/datatypes"

	"venueq/internal/models"
)

// JobRepoInterface defines the contract the queue needs from its row store.
// All mutations are single-row conditional updates keyed by id; the boolean
// results of Claim and CancelPending report whether the guard matched.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	FindPendingByUniqueKey(ctx context.Context, jobType, key string) (*models.Job, error)
	NextEligible(ctx context.Context, now time.Time, limit int) ([]models.Job, error)
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, id string, result datatypes.JSON, now time.Time) error
	RescheduleRetry(ctx context.Context, id string, errMsg string, runAt time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string, now time.Time) error
	CancelPending(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, status string, limit int) ([]models.Job, error)
	ListStuckProcessing(ctx context.Context, olderThan time.Duration) ([]models.Job, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
