package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"server/internal/domain"
)

const jobKeyPrefix = "itinerary:"

// JobRepositoryRedis implements domain.JobStore on Redis, holding each job as
// one JSON document per key. Timestamps come from the Redis TIME command so
// the document clock stays the store's, matching the PostgreSQL backend.
//
// Merge updates are read-modify-write. That is safe here because a job
// receives exactly one terminal write ever; there is no concurrent writer to
// race against.
type JobRepositoryRedis struct {
	rdb *redis.Client
}

// NewJobRepositoryRedis creates a new job store backed by Redis.
func NewJobRepositoryRedis(rdb *redis.Client) *JobRepositoryRedis {
	return &JobRepositoryRedis{rdb: rdb}
}

// Create writes a new job document with the Redis server clock as CreatedAt.
func (r *JobRepositoryRedis) Create(ctx context.Context, job *domain.Job) error {
	now, err := r.rdb.Time(ctx).Result()
	if err != nil {
		return fmt.Errorf("read server time: %w", err)
	}
	job.CreatedAt = now.UTC()

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := r.rdb.Set(ctx, jobKey(job.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("write job: %w", err)
	}
	return nil
}

// GetByID fetches a job document by its identifier.
func (r *JobRepositoryRedis) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	payload, err := r.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode stored job: %w", err)
	}
	return &job, nil
}

// MergeUpdate applies the terminal transition to the stored document, with
// completedAt assigned from the Redis server clock.
func (r *JobRepositoryRedis) MergeUpdate(ctx context.Context, jobID string, update domain.JobUpdate) error {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	now, err := r.rdb.Time(ctx).Result()
	if err != nil {
		return fmt.Errorf("read server time: %w", err)
	}

	job.Status = update.Status
	if update.Itinerary != nil {
		job.Itinerary = update.Itinerary
	}
	if update.ErrorMessage != "" {
		job.ErrorMessage = update.ErrorMessage
	}
	completedAt := now.UTC()
	job.CompletedAt = &completedAt

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := r.rdb.Set(ctx, jobKey(jobID), payload, 0).Err(); err != nil {
		return fmt.Errorf("write job: %w", err)
	}
	return nil
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}
