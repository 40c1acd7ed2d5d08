package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

var ErrJobNotFound = errors.New("排班任务不存在或已过期")

// Store 在 redis 中保存排班任务的状态和结果，结果在过期后自动删除
type Store struct {
	rdb        *redis.Client
	expiration time.Duration
}

func NewStore(cfg *config.Config, rdb *redis.Client) *Store {
	return &Store{
		rdb:        rdb,
		expiration: time.Duration(cfg.Job.ResultExpiration) * time.Second,
	}
}

func jobKey(id string) string {
	return "schedule_job_" + id
}

func (s *Store) Save(ctx context.Context, job *domain.GenerationJob) error {
	job.UpdatedAt = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, jobKey(job.ID), data, s.expiration).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*domain.GenerationJob, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	job := &domain.GenerationJob{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, err
	}

	return job, nil
}

func NewJob(req domain.ScheduleRequest, opts domain.GenerationOptions, notifyEmail string) *domain.GenerationJob {
	now := time.Now()
	return &domain.GenerationJob{
		ID:          uuid.New().String(),
		Status:      domain.JobStatusPending,
		Request:     req,
		Options:     opts,
		NotifyEmail: notifyEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
