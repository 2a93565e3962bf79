package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"venueq/internal/mocks"
	"venueq/internal/models"
	"venueq/internal/queue"
	"venueq/internal/storage/postgres"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps every goroutine on the same in-memory database
	// and serializes writes, which sqlite needs anyway.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.SMSTemplate{}, &models.Message{}))
	return db
}

func newTestQueue(t *testing.T) (*queue.Queue, *gorm.DB) {
	db := setupTestDB(t)
	repo := postgres.NewJobRepository(db)
	return queue.New(repo, queue.NewRegistry(), zap.NewNop()), db
}

// makeEligible rewinds a job's scheduled time so the next processing pass
// picks it up without waiting out the backoff.
func makeEligible(t *testing.T, db *gorm.DB, id string) {
	err := db.Model(&models.Job{}).
		Where("id = ?", id).
		Update("scheduled_for", time.Now().Add(-time.Second)).Error
	require.NoError(t, err)
}

func getJob(t *testing.T, db *gorm.DB, id string) models.Job {
	var job models.Job
	require.NoError(t, db.First(&job, "id = ?", id).Error)
	return job
}

func TestEnqueue_Defaults(t *testing.T) {
	q, db := newTestQueue(t)

	id, err := q.Enqueue(context.Background(), queue.TypeGenerateReport,
		queue.Payload{"report_type": "bookings"}, queue.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusPending), job.Status)
	assert.Equal(t, 0, job.Priority)
	assert.Equal(t, 0, job.Attempts)
	assert.Equal(t, queue.DefaultMaxAttempts, job.MaxAttempts)
	assert.WithinDuration(t, time.Now(), job.ScheduledFor, 2*time.Second)
}

func TestEnqueue_Validation(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	tests := []struct {
		name string
		typ  queue.JobType
		opts queue.Options
	}{
		{"empty type", "", queue.Options{}},
		{"negative max attempts", queue.TypeSendSMS, queue.Options{MaxAttempts: -1}},
		{"negative delay", queue.TypeSendSMS, queue.Options{Delay: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := q.Enqueue(ctx, tt.typ, nil, tt.opts)
			require.Error(t, err)

			var verr *queue.ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestEnqueue_Delay(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, queue.TypeSyncCalendar,
		queue.Payload{"calendar_id": "main"}, queue.Options{Delay: time.Hour})
	require.NoError(t, err)

	jobs, err := q.NextEligibleJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs, "delayed job must not be eligible yet")
}

func TestEnqueue_Dedup(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	opts := queue.Options{Unique: "reminder-booking-42"}
	first, err := q.Enqueue(ctx, queue.TypeProcessBookingReminder,
		queue.Payload{"booking_id": "42"}, opts)
	require.NoError(t, err)

	second, err := q.Enqueue(ctx, queue.TypeProcessBookingReminder,
		queue.Payload{"booking_id": "42"}, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second enqueue must return the existing job id")

	var count int64
	require.NoError(t, db.Model(&models.Job{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// The same key on a different type is a different job.
	other, err := q.Enqueue(ctx, queue.TypeProcessEventReminder,
		queue.Payload{"event_id": "42"}, opts)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestEnqueue_DedupReleasedOnTerminalState(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	opts := queue.Options{Unique: "stats-nightly"}
	first, err := q.Enqueue(ctx, queue.TypeRebuildCategoryStats, nil, opts)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Job{}).
		Where("id = ?", first).
		Update("status", string(queue.StatusCompleted)).Error)

	second, err := q.Enqueue(ctx, queue.TypeRebuildCategoryStats, nil, opts)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "a completed job must not block re-enqueue")
}

func TestNextEligibleJobs_Ordering(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	seed := func(id string, priority int, created time.Time) {
		require.NoError(t, db.Create(&models.Job{
			ID:           id,
			Type:         string(queue.TypeGenerateReport),
			Status:       string(queue.StatusPending),
			Priority:     priority,
			MaxAttempts:  3,
			ScheduledFor: base,
			CreatedAt:    created,
		}).Error)
	}
	seed("job-a", 5, base.Add(time.Second))
	seed("job-b", 10, base.Add(2*time.Second))
	seed("job-c", 5, base)

	jobs, err := q.NextEligibleJobs(ctx, 3)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "job-b", jobs[0].ID, "highest priority first")
	assert.Equal(t, "job-c", jobs[1].ID, "oldest first within a priority band")
	assert.Equal(t, "job-a", jobs[2].ID)
}

func TestNextEligibleJob_Single(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job, err := q.NextEligibleJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, job, "empty queue yields nil, not an error")

	id, err := q.Enqueue(ctx, queue.TypeExportEmployees, nil, queue.Options{})
	require.NoError(t, err)

	job, err = q.NextEligibleJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id, job.ID)
}

func TestProcessJobs_Success(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	q.Registry().Register("send_test_sms", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		return map[string]any{"sid": "SM123"}, nil
	})

	id, err := q.Enqueue(ctx, "send_test_sms",
		queue.Payload{"to": "+447700900000", "message": "hi"}, queue.Options{Priority: 1})
	require.NoError(t, err)

	processed, err := q.ProcessJobs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusCompleted), job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.CompletedAt)
	assert.Nil(t, job.FailedAt)
	assert.JSONEq(t, `{"sid":"SM123"}`, string(job.Result))
}

func TestProcessJobs_RetryBackoff(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	q.Registry().Register("always_fails", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		return nil, fmt.Errorf("gateway unreachable")
	})

	id, err := q.Enqueue(ctx, "always_fails", nil, queue.Options{MaxAttempts: 3})
	require.NoError(t, err)

	before := time.Now()
	_, err = q.ProcessJobs(ctx, 10)
	require.NoError(t, err)

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusPending), job.Status, "first failure retries")
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.ErrorMessage, "gateway unreachable")
	assert.Nil(t, job.FailedAt)

	// attempts=1 after the first failure, so the retry lands at least
	// 2^1 minutes out.
	assert.False(t, job.ScheduledFor.Before(before.Add(2*time.Minute)),
		"retry scheduled_for %v must be >= %v", job.ScheduledFor, before.Add(2*time.Minute))

	firstRetryAt := job.ScheduledFor
	makeEligible(t, db, id)
	_, err = q.ProcessJobs(ctx, 10)
	require.NoError(t, err)

	job = getJob(t, db, id)
	assert.Equal(t, 2, job.Attempts)
	assert.True(t, job.ScheduledFor.After(firstRetryAt),
		"backoff keeps pushing scheduled_for forward")
}

func TestProcessJobs_RetryExhaustion(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	q.Registry().Register("always_fails", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		return nil, fmt.Errorf("boom")
	})

	id, err := q.Enqueue(ctx, "always_fails", nil, queue.Options{MaxAttempts: 3})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		makeEligible(t, db, id)
		_, err = q.ProcessJobs(ctx, 10)
		require.NoError(t, err)
	}

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusFailed), job.Status)
	assert.Equal(t, 3, job.Attempts)
	require.NotNil(t, job.FailedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Contains(t, job.ErrorMessage, "boom")

	// Terminal: another pass must not touch it.
	makeEligible(t, db, id)
	processed, err := q.ProcessJobs(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestProcessJobs_BatchIsolation(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	q.Registry().Register("batch_job", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		return map[string]any{"ok": true}, nil
	})

	q.Registry().Register("batch_boom", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		return nil, fmt.Errorf("handler exploded")
	})

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		typ := queue.JobType("batch_job")
		if i == 2 {
			typ = "batch_boom"
		}
		id, err := q.Enqueue(ctx, typ, nil, queue.Options{})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	processed, err := q.ProcessJobs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, processed)

	for i, id := range ids {
		job := getJob(t, db, id)
		if i == 2 {
			assert.Equal(t, string(queue.StatusPending), job.Status,
				"failed sibling retries, the rest complete")
			assert.Contains(t, job.ErrorMessage, "handler exploded")
		} else {
			assert.Equal(t, string(queue.StatusCompleted), job.Status)
		}
		assert.NotEqual(t, string(queue.StatusProcessing), job.Status,
			"nothing may be left processing after the batch settles")
	}
}

func TestProcessJobs_PanicIsContained(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	q.Registry().Register("panics", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		panic("handler bug")
	})

	id, err := q.Enqueue(ctx, "panics", nil, queue.Options{MaxAttempts: 1})
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err := q.ProcessJobs(ctx, 10)
		require.NoError(t, err)
	})

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusFailed), job.Status)
	assert.Contains(t, job.ErrorMessage, "panic")
}

func TestProcessJobs_UnregisteredType(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	// Enqueue accepts the type; only dispatch rejects it.
	id, err := q.Enqueue(ctx, "no_such_type", nil, queue.Options{MaxAttempts: 1})
	require.NoError(t, err)

	_, err = q.ProcessJobs(ctx, 10)
	require.NoError(t, err)

	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusFailed), job.Status)
	assert.Contains(t, job.ErrorMessage, "no handler registered")
}

func TestProcessJobs_ConcurrentInvocations(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	var runs atomic.Int32
	q.Registry().Register("counted", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		runs.Add(1)
		return nil, nil
	})

	id, err := q.Enqueue(ctx, "counted", nil, queue.Options{})
	require.NoError(t, err)

	// Two drains race over the same pending row; the claim guard lets only
	// one of them execute it.
	done := make(chan int, 2)
	for i := 0; i < 2; i++ {
		go func() {
			n, err := q.ProcessJobs(ctx, 10)
			assert.NoError(t, err)
			done <- n
		}()
	}
	total := <-done + <-done

	assert.Equal(t, 1, total)
	assert.EqualValues(t, 1, runs.Load())
	assert.Equal(t, string(queue.StatusCompleted), getJob(t, db, id).Status)
}

func TestCancel(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, queue.TypeSendBulkSMS, nil, queue.Options{})
	require.NoError(t, err)

	require.NoError(t, q.Cancel(ctx, id))
	job := getJob(t, db, id)
	assert.Equal(t, string(queue.StatusCancelled), job.Status)
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.FailedAt)

	// Cancelled is terminal.
	err = q.Cancel(ctx, id)
	var verr *queue.ValidationError
	require.True(t, errors.As(err, &verr))

	err = q.Cancel(ctx, "missing-id")
	var nferr *queue.NotFoundError
	require.True(t, errors.As(err, &nferr))
}

func TestGetJob_NotFound(t *testing.T) {
	q, _ := newTestQueue(t)

	_, err := q.GetJob(context.Background(), "nope")
	var nferr *queue.NotFoundError
	require.True(t, errors.As(err, &nferr))
}

func TestCleanup_Retention(t *testing.T) {
	q, db := newTestQueue(t)
	ctx := context.Background()

	seed := func(id, status string, age time.Duration) {
		require.NoError(t, db.Create(&models.Job{
			ID:           id,
			Type:         string(queue.TypeCleanupOldData),
			Status:       status,
			MaxAttempts:  3,
			ScheduledFor: time.Now(),
			CreatedAt:    time.Now().Add(-age),
		}).Error)
	}

	day := 24 * time.Hour
	seed("old-completed", string(queue.StatusCompleted), 31*day)
	seed("old-failed", string(queue.StatusFailed), 40*day)
	seed("old-cancelled", string(queue.StatusCancelled), 100*day)
	seed("young-completed", string(queue.StatusCompleted), 29*day)
	seed("ancient-pending", string(queue.StatusPending), 400*day)
	seed("ancient-processing", string(queue.StatusProcessing), 400*day)

	deleted, err := q.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	var left []models.Job
	require.NoError(t, db.Find(&left).Error)
	survivors := make([]string, 0, len(left))
	for _, j := range left {
		survivors = append(survivors, j.ID)
	}
	assert.ElementsMatch(t,
		[]string{"young-completed", "ancient-pending", "ancient-processing"}, survivors)

	// Idempotent: a second pass finds nothing.
	deleted, err = q.Cleanup(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestEnqueue_PersistenceError(t *testing.T) {
	repo := new(mocks.JobRepoMock)
	q := queue.New(repo, queue.NewRegistry(), zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("connection refused"))

	_, err := q.Enqueue(context.Background(), queue.TypeSendSMS,
		queue.Payload{"to": "+447700900000"}, queue.Options{})
	require.Error(t, err)

	var perr *queue.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Error(), "connection refused")
	repo.AssertExpectations(t)
}

func TestProcessJobs_ClaimLostIsSkipped(t *testing.T) {
	repo := new(mocks.JobRepoMock)
	reg := queue.NewRegistry()
	q := queue.New(repo, reg, zap.NewNop())

	called := false
	reg.Register("never_runs", func(ctx context.Context, payload datatypes.JSON) (any, error) {
		called = true
		return nil, nil
	})

	repo.On("NextEligible", mock.Anything, mock.Anything, 10).Return([]models.Job{
		{ID: "j1", Type: "never_runs", Status: string(queue.StatusPending), MaxAttempts: 3},
	}, nil)
	// Another invocation already claimed the row.
	repo.On("Claim", mock.Anything, "j1", mock.Anything).Return(false, nil)

	processed, err := q.ProcessJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.False(t, called, "a lost claim must not dispatch the handler")
	repo.AssertExpectations(t)
}
