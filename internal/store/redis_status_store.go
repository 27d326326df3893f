package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"gsearch/internal/models"
)

const (
	// StatusPrefix namespaces job status keys.
	StatusPrefix = "gsearch:status:"
	// ClaimPrefix namespaces worker dedupe keys.
	ClaimPrefix = "gsearch:claimed:"
)

// RedisStatusStore stores search job status in Redis.
type RedisStatusStore struct {
	client redis.Cmdable
	closer func() error
	prefix string
	ttl    time.Duration
}

// NewRedisStatusStore initializes a Redis-backed StatusStore.
func NewRedisStatusStore(addr, prefix string, ttl time.Duration) *RedisStatusStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStatusStore{
		client: client,
		closer: client.Close,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewRedisStatusStoreWithClient wraps an existing client; Close is a no-op.
func NewRedisStatusStoreWithClient(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{
		client: client,
		closer: func() error { return nil },
		prefix: prefix,
		ttl:    ttl,
	}
}

// Close closes the Redis client.
func (s *RedisStatusStore) Close() error {
	return s.closer()
}

// SetStatus writes the status record to Redis.
func (s *RedisStatusStore) SetStatus(ctx context.Context, status models.SearchStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	key := s.prefix + status.JobID
	return s.client.Set(ctx, key, payload, s.ttl).Err()
}

// GetStatus reads the status record from Redis.
func (s *RedisStatusStore) GetStatus(ctx context.Context, jobID string) (models.SearchStatus, bool, error) {
	key := s.prefix + jobID
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SearchStatus{}, false, nil
		}
		return models.SearchStatus{}, false, err
	}

	var status models.SearchStatus
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return models.SearchStatus{}, false, err
	}

	return status, true, nil
}

// Claim sets the claim key for jobID if absent. It reports false when
// another delivery already claimed the job.
func (s *RedisStatusStore) Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, ClaimPrefix+jobID, "1", ttl).Result()
}
