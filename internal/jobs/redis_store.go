package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "quizai:job:"

// RedisStore keeps jobs in Redis so multiple replicas can serve status polls
// for jobs queued on any of them. Expiry is delegated to Redis TTLs.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl bounds how long any job record
// lives, terminal or not; it should comfortably exceed the job timeout plus
// the retention window.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+job.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrUnknownJob
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return job, nil
}

// Sweep is a no-op, Redis evicts records through the per-key TTL.
func (s *RedisStore) Sweep(context.Context, time.Duration) (int, error) {
	return 0, nil
}
