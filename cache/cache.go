// Package cache provides the read-through response cache used by the HTTP API.
//
// Values are stored as JSON so that the in-process sturdyc backend and the
// shared Redis backend behave the same way. Keys are built from path-like
// segments joined with KeySeparator, which lets callers drop a whole subtree
// with DeleteByPrefix.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// FetchFn loads the encoded value from the source of truth on a miss.
type FetchFn func(ctx context.Context) ([]byte, error)

// Service is the cache backend contract.
type Service interface {
	GetOrFetch(ctx context.Context, key string, fetch FetchFn) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}

// GetOrFetch is the typed wrapper around Service.GetOrFetch. Errors from fetch
// are returned unchanged and nothing is cached for them.
func GetOrFetch[T any](ctx context.Context, s Service, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := s.GetOrFetch(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return out, nil
}

// Key joins segments into a cache key.
func Key(segments ...string) string {
	return strings.Join(segments, KeySeparator)
}

// Config holds backend-independent settings plus sturdyc sizing.
type Config struct {
	TTL                time.Duration
	Capacity           int
	NumShards          int
	EvictionPercentage int
}

func DefaultConfig() Config {
	return Config{
		TTL:                30 * time.Second,
		Capacity:           10000,
		NumShards:          64,
		EvictionPercentage: 10,
	}
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}
