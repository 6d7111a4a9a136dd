package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint passed to SCAN during prefix deletes.
const scanBatch = 100

type redisService struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis creates the shared backend. Every key is stored under namespace so
// DeleteByPrefix never touches foreign keys in the same database.
func NewRedis(client *redis.Client, namespace string, cfg Config) (Service, error) {
	if client == nil {
		return nil, &ConfigError{Field: "client", Message: "cannot be nil"}
	}
	if cfg.TTL <= 0 {
		return nil, &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	return &redisService{client: client, ttl: cfg.TTL, prefix: namespace + KeySeparator}, nil
}

func (s *redisService) GetOrFetch(ctx context.Context, key string, fetch FetchFn) ([]byte, error) {
	full := s.prefix + key
	raw, err := s.client.Get(ctx, full).Bytes()
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}

	raw, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, full, raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("redis set %q: %w", key, err)
	}
	return raw, nil
}

func (s *redisService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *redisService) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %q: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisService) Close() error {
	return s.client.Close()
}
