package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"venueq/internal/models"
	"venueq/internal/queue"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ queue.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job row. The model hook assigns the id.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a job by id. A missing row is (nil, nil), not an error;
// the caller decides whether that is exceptional.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// FindPendingByUniqueKey looks up a pending job of the given type whose
// payload carries the de-duplication key. The JSONQuery builder keeps the
// nested-key filter portable between postgres jsonb and the sqlite used in
// tests.
func (r *JobRepository) FindPendingByUniqueKey(ctx context.Context, jobType, key string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", jobType, string(queue.StatusPending)).
		Where(datatypes.JSONQuery("payload").Equals(key, queue.UniqueKeyField)).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending by unique key: %w", err)
	}
	return &job, nil
}

// NextEligible selects due pending jobs: priority descending, then oldest
// first within a priority band.
func (r *JobRepository) NextEligible(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", string(queue.StatusPending), now).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("next eligible: %w", err)
	}
	return jobs, nil
}

// Claim is the conditional pending→processing update. The status guard in
// the WHERE clause means exactly one concurrent caller sees a row affected;
// everyone else gets false. Attempts are incremented in the same statement
// so a crash mid-execution leaves the attempt visibly spent.
func (r *JobRepository) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(queue.StatusPending)).
		Updates(map[string]any{
			"status":     string(queue.StatusProcessing),
			"started_at": now,
			"attempts":   gorm.Expr("attempts + ?", 1),
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim job: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkCompleted records a successful run and its result.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, result datatypes.JSON, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       string(queue.StatusCompleted),
			"completed_at": now,
			"result":       result,
		}).Error
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// RescheduleRetry sends a failed job back to pending with a new scheduled
// time. failed_at stays unset: the job is not terminal yet.
func (r *JobRepository) RescheduleRetry(ctx context.Context, id string, errMsg string, runAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(queue.StatusPending),
			"error_message": errMsg,
			"scheduled_for": runAt,
		}).Error
	if err != nil {
		return fmt.Errorf("reschedule retry: %w", err)
	}
	return nil
}

// MarkFailed records terminal failure after the attempt budget is spent.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, errMsg string, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(queue.StatusFailed),
			"failed_at":     now,
			"error_message": errMsg,
		}).Error
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// CancelPending flips a pending job to cancelled. Returns false when the
// job does not exist or has already left pending.
func (r *JobRepository) CancelPending(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(queue.StatusPending)).
		Update("status", string(queue.StatusCancelled))
	if res.Error != nil {
		return false, fmt.Errorf("cancel job: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// List returns jobs newest first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status string, limit int) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListStuckProcessing returns processing jobs whose attempt started longer
// ago than the threshold. They are reported, never reclaimed.
func (r *JobRepository) ListStuckProcessing(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	cutoff := time.Now().Add(-olderThan)

	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", string(queue.StatusProcessing), cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}

// DeleteTerminalBefore purges terminal jobs created before the cutoff and
// reports how many rows were removed. Pending and processing rows are never
// touched, whatever their age.
func (r *JobRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?", []string{
			string(queue.StatusCompleted),
			string(queue.StatusFailed),
			string(queue.StatusCancelled),
		}, cutoff).
		Delete(&models.Job{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete terminal jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
