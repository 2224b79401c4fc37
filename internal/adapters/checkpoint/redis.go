package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps checkpoints in Redis under "<prefix>:latest" and
// "<prefix>:gen:<n>".
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "snakedraft"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// LatestKey returns the key holding the most recent checkpoint.
func (s *RedisStore) LatestKey() string {
	return s.prefix + ":latest"
}

// GenerationKey returns the key holding the checkpoint of generation n.
func (s *RedisStore) GenerationKey(n int) string {
	return fmt.Sprintf("%s:gen:%d", s.prefix, n)
}

// Save implements Store. Both keys are written in one pipeline.
func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := encode(cp)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.GenerationKey(cp.Generation), data, s.ttl)
	pipe.Set(ctx, s.LatestKey(), data, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write checkpoint to redis: %w", err)
	}
	return nil
}

// Latest implements Store.
func (s *RedisStore) Latest(ctx context.Context) (*Checkpoint, error) {
	data, err := s.client.Get(ctx, s.LatestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint from redis: %w", err)
	}
	return decode(data)
}
