package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"venueq/internal/models"
)

// Queue is the durable job queue. It is constructed once at process start
// and passed to callers explicitly; there is no package-level instance.
//
// The queue itself is not a long-running process: an external trigger (the
// worker's cron tick, or the manual drain endpoint) calls ProcessJobs.
type Queue struct {
	repo     JobRepoInterface
	registry *Registry
	logger   *zap.Logger

	// now is swapped out by tests that need a fixed clock.
	now func() time.Time
}

func New(repo JobRepoInterface, registry *Registry, logger *zap.Logger) *Queue {
	return &Queue{
		repo:     repo,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Registry exposes the handler registry so callers can populate it after
// construction. Handlers may capture the queue itself (cleanup_old_data
// does), so registration cannot happen inside New.
func (q *Queue) Registry() *Registry { return q.registry }

// Enqueue inserts a new pending job and returns its id.
//
// When opts.Unique is set the call is idempotent: if a pending job of the
// same type already carries that key, its id is returned and no row is
// inserted. The key is stored inside the payload under UniqueKeyField so
// the lookup survives restarts.
func (q *Queue) Enqueue(ctx context.Context, t JobType, payload Payload, opts Options) (string, error) {
	if t == "" {
		return "", validationErrf("job type is required")
	}
	if opts.MaxAttempts < 0 {
		return "", validationErrf("max attempts must not be negative")
	}
	if opts.Delay < 0 {
		return "", validationErrf("delay must not be negative")
	}

	if opts.Unique != "" {
		existing, err := q.repo.FindPendingByUniqueKey(ctx, string(t), opts.Unique)
		if err != nil {
			return "", &PersistenceError{Op: "dedup lookup", Err: err}
		}
		if existing != nil {
			q.logger.Info("job with unique key already pending",
				zap.String("job_id", existing.ID),
				zap.String("type", string(t)),
				zap.String("unique_key", opts.Unique))
			return existing.ID, nil
		}

		merged := make(Payload, len(payload)+1)
		for k, v := range payload {
			merged[k] = v
		}
		merged[UniqueKeyField] = opts.Unique
		payload = merged
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", validationErrf("payload is not serializable: %v", err)
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	job := models.Job{
		Type:         string(t),
		Payload:      datatypes.JSON(raw),
		Status:       string(StatusPending),
		Priority:     opts.Priority,
		Attempts:     0,
		MaxAttempts:  maxAttempts,
		ScheduledFor: q.now().Add(opts.Delay),
	}

	if err := q.repo.Create(ctx, &job); err != nil {
		q.logger.Error("failed to enqueue job",
			zap.String("type", string(t)), zap.Error(err))
		return "", &PersistenceError{Op: "enqueue", Err: err}
	}

	q.logger.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("type", string(t)),
		zap.Int("priority", job.Priority))

	return job.ID, nil
}

// GetJob returns a job by id.
func (q *Queue) GetJob(ctx context.Context, id string) (*models.Job, error) {
	job, err := q.repo.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get job", Err: err}
	}
	if job == nil {
		return nil, &NotFoundError{ID: id}
	}
	return job, nil
}

// NextEligibleJobs returns up to limit pending jobs whose scheduled time has
// passed, highest priority first, oldest first within a priority band.
func (q *Queue) NextEligibleJobs(ctx context.Context, limit int) ([]models.Job, error) {
	jobs, err := q.repo.NextEligible(ctx, q.now(), limit)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch eligible jobs", Err: err}
	}
	return jobs, nil
}

// NextEligibleJob is the single-job variant, used for sequential draining.
// It returns (nil, nil) when nothing is eligible.
func (q *Queue) NextEligibleJob(ctx context.Context) (*models.Job, error) {
	jobs, err := q.NextEligibleJobs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	return &jobs[0], nil
}

// ProcessJobs fetches a batch of eligible jobs and executes them
// concurrently. Each job's lifecycle is independent: a failing or panicking
// handler is converted into that job's retry/fail transition and never
// affects its siblings. The returned count is how many jobs this invocation
// claimed.
func (q *Queue) ProcessJobs(ctx context.Context, limit int) (int, error) {
	jobs, err := q.NextEligibleJobs(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := range jobs {
		job := jobs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.processJob(ctx, &job) {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return claimed, nil
}

// processJob runs one job through the executor state machine. It reports
// whether this invocation won the claim.
func (q *Queue) processJob(ctx context.Context, job *models.Job) bool {
	start := q.now()

	// Conditional pending→processing update. Exactly one concurrent
	// invocation can win; the rest see the row already claimed and move on.
	ok, err := q.repo.Claim(ctx, job.ID, start)
	if err != nil {
		q.logger.Error("failed to claim job",
			zap.String("job_id", job.ID), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	attempts := job.Attempts + 1

	result, err := q.dispatch(ctx, JobType(job.Type), job.Payload)
	if err != nil {
		q.settleFailure(ctx, job, attempts, err)
		return true
	}

	raw, merr := json.Marshal(result)
	if merr != nil {
		q.settleFailure(ctx, job, attempts, &HandlerError{
			Type: JobType(job.Type),
			Err:  fmt.Errorf("result not serializable: %w", merr),
		})
		return true
	}

	if err := q.repo.MarkCompleted(ctx, job.ID, datatypes.JSON(raw), q.now()); err != nil {
		// Left in processing; the state last durably committed stands.
		q.logger.Error("failed to persist job completion",
			zap.String("job_id", job.ID), zap.Error(err))
		return true
	}

	q.logger.Info("job completed",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Duration("duration", q.now().Sub(start)))
	return true
}

// dispatch resolves and invokes the handler for a job type. Handler panics
// are recovered and surfaced as HandlerErrors so a bad handler cannot take
// down the batch.
func (q *Queue) dispatch(ctx context.Context, t JobType, payload datatypes.JSON) (result any, err error) {
	handler, ok := q.registry.lookup(t)
	if !ok {
		return nil, validationErrf("no handler registered for job type %q", t)
	}

	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Type: t, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = handler(ctx, payload)
	if err != nil {
		var herr *HandlerError
		if !errors.As(err, &herr) {
			err = &HandlerError{Type: t, Err: err}
		}
	}
	return result, err
}

// settleFailure applies the retry/fail transition after a failed attempt.
// Retries are pushed forward by 2^attempts minutes, so scheduled_for only
// ever moves forward across retries of the same job.
func (q *Queue) settleFailure(ctx context.Context, job *models.Job, attempts int, cause error) {
	shouldRetry := attempts < job.MaxAttempts

	var perr error
	if shouldRetry {
		runAt := q.now().Add(backoff(attempts))
		perr = q.repo.RescheduleRetry(ctx, job.ID, cause.Error(), runAt)
	} else {
		perr = q.repo.MarkFailed(ctx, job.ID, cause.Error(), q.now())
	}
	if perr != nil {
		q.logger.Error("failed to persist job failure",
			zap.String("job_id", job.ID), zap.Error(perr))
		return
	}

	q.logger.Error("job failed",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempts", attempts),
		zap.Bool("will_retry", shouldRetry),
		zap.Error(cause))
}

func backoff(attempts int) time.Duration {
	return time.Duration(1<<attempts) * time.Minute
}

// Cancel flips a pending job to cancelled. Jobs that already started
// processing run to completion or failure; cancelling them is not supported.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	ok, err := q.repo.CancelPending(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "cancel job", Err: err}
	}
	if ok {
		q.logger.Info("job cancelled", zap.String("job_id", id))
		return nil
	}

	job, err := q.repo.Get(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "cancel job", Err: err}
	}
	if job == nil {
		return &NotFoundError{ID: id}
	}
	return validationErrf("only pending jobs can be cancelled (status: %s)", job.Status)
}

// ListJobs returns jobs filtered by status, newest first. An empty status
// returns jobs of any status.
func (q *Queue) ListJobs(ctx context.Context, status Status, limit int) ([]models.Job, error) {
	jobs, err := q.repo.List(ctx, string(status), limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list jobs", Err: err}
	}
	return jobs, nil
}

// Cleanup deletes terminal jobs older than the retention window and returns
// how many rows went away. Non-terminal jobs survive regardless of age, so
// the call is idempotent and safe on a schedule.
func (q *Queue) Cleanup(ctx context.Context, daysToKeep int) (int64, error) {
	if daysToKeep <= 0 {
		daysToKeep = 30
	}
	cutoff := q.now().AddDate(0, 0, -daysToKeep)

	count, err := q.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return 0, &PersistenceError{Op: "cleanup jobs", Err: err}
	}
	if count > 0 {
		q.logger.Info("cleaned up old jobs",
			zap.Int64("deleted", count),
			zap.Int("days_kept", daysToKeep))
	}
	return count, nil
}

// ReportStuck logs processing jobs older than the threshold. There is no
// automatic re-claim of stuck rows; an operator decides what to do with
// them.
func (q *Queue) ReportStuck(ctx context.Context, olderThan time.Duration) {
	stuck, err := q.repo.ListStuckProcessing(ctx, olderThan)
	if err != nil {
		q.logger.Error("failed to list stuck jobs", zap.Error(err))
		return
	}
	for _, j := range stuck {
		q.logger.Warn("job stuck in processing",
			zap.String("job_id", j.ID),
			zap.String("type", j.Type),
			zap.Timep("started_at", j.StartedAt))
	}
}
