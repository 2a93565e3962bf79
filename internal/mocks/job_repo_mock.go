package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"venueq/internal/models"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) FindPendingByUniqueKey(ctx context.Context, jobType, key string) (*models.Job, error) {
	args := m.Called(ctx, jobType, key)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) NextEligible(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	args := m.Called(ctx, now, limit)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) MarkCompleted(ctx context.Context, id string, result datatypes.JSON, now time.Time) error {
	args := m.Called(ctx, id, result, now)
	return args.Error(0)
}

func (m *JobRepoMock) RescheduleRetry(ctx context.Context, id string, errMsg string, runAt time.Time) error {
	args := m.Called(ctx, id, errMsg, runAt)
	return args.Error(0)
}

func (m *JobRepoMock) MarkFailed(ctx context.Context, id string, errMsg string, now time.Time) error {
	args := m.Called(ctx, id, errMsg, now)
	return args.Error(0)
}

func (m *JobRepoMock) CancelPending(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *JobRepoMock) List(ctx context.Context, status string, limit int) ([]models.Job, error) {
	args := m.Called(ctx, status, limit)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) ListStuckProcessing(ctx context.Context, olderThan time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, olderThan)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
