package syncstate

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/apperr"
)

// RedisStore keeps the cursor as a plain string key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// NewRedisStoreFromURL parses a redis:// URL.
func NewRedisStoreFromURL(url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "invalid REDIS_URL", err)
	}
	return NewRedisStore(redis.NewClient(opts), key), nil
}

// Load reads the cursor.
func (s *RedisStore) Load(ctx context.Context) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, apperr.State("redis get", err).WithOp("load")
	}
	t, err := parseCursor(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Save writes the cursor without expiry.
func (s *RedisStore) Save(ctx context.Context, cursor time.Time) error {
	if err := s.client.Set(ctx, s.key, cursor.Format(proposals.DateLayout), 0).Err(); err != nil {
		return apperr.State("redis set", err).WithOp("save")
	}
	return nil
}

// Reset deletes the key.
func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return apperr.State("redis del", err).WithOp("reset")
	}
	return nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
