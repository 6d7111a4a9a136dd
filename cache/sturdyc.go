package cache

import (
	"context"
	"strings"

	"github.com/viccon/sturdyc"
)

// sturdycService wraps a sturdyc client. Concurrent misses for the same key
// share one fetch.
type sturdycService struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdyc creates the in-process backend.
func NewSturdyc(cfg Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
	)
	return &sturdycService{client: client}, nil
}

func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetch FetchFn) ([]byte, error) {
	return s.client.GetOrFetch(ctx, key, sturdyc.FetchFn[[]byte](fetch))
}

func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

func (s *sturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

func (s *sturdycService) Ping(ctx context.Context) error { return nil }

func (s *sturdycService) Close() error { return nil }
