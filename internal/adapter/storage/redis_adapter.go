package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/port"
)

const browserKeyPrefix = "browser:"

// RedisAdapter stores each browser namespace as one hash, field per item.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// WithTTL expires a browser namespace ttl after its last write. Zero keeps
// namespaces forever.
func (r *RedisAdapter) WithTTL(ttl time.Duration) *RedisAdapter {
	r.ttl = ttl
	return r
}

func (r *RedisAdapter) Storage(browserID string) port.BrowserStorage {
	return &redisStorage{adapter: r, key: browserKeyPrefix + browserID}
}

type redisStorage struct {
	adapter *RedisAdapter
	key     string
}

func (s *redisStorage) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.adapter.client.HGet(ctx, s.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *redisStorage) SetItem(ctx context.Context, key string, value []byte) error {
	_, err := s.adapter.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, key, value)
		if s.adapter.ttl > 0 {
			pipe.Expire(ctx, s.key, s.adapter.ttl)
		}
		return nil
	})
	return err
}

func (s *redisStorage) RemoveItem(ctx context.Context, key string) error {
	return s.adapter.client.HDel(ctx, s.key, key).Err()
}
