package main

import (
	"context"
	"errors"
	"fmt"

	"menu-service/cache"
	"menu-service/config"
	"menu-service/db"
	"menu-service/notify"
	"menu-service/services"
	"menu-service/sheetsync"
	"menu-service/tasks"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// cacheNamespace prefixes every key this service writes to Redis.
const cacheNamespace = "menu-service"

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return services.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}
	return services.NewPostgresStore(pool), pool.Close, nil
}

func openCache(cfg *config.Config) (cache.Service, error) {
	cc := cache.Config{
		TTL:                cfg.Cache.TTL,
		Capacity:           cfg.Cache.Capacity,
		NumShards:          cfg.Cache.NumShards,
		EvictionPercentage: cfg.Cache.EvictionPercentage,
	}
	if cfg.Cache.Backend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cache.NewRedis(client, cacheNamespace, cc)
	}
	return cache.NewSturdyc(cc)
}

// openNotifier falls back to logging when Telegram is not configured or the
// bot cannot be reached.
func openNotifier(cfg *config.Config, logger *logrus.Logger) notify.Notifier {
	fallback := notify.Log{Logger: logger}
	if cfg.Telegram.Token == "" {
		return fallback
	}
	tg, err := notify.Dial(cfg.Telegram.Token, cfg.Telegram.AdminChatID)
	if err != nil {
		logger.WithError(err).Warn("telegram notifier unavailable, logging notifications instead")
		return fallback
	}
	return tg
}

func newSyncJob(cfg *config.Config, logger *logrus.Logger) (*sheetsync.Job, error) {
	return sheetsync.NewJob(sheetsync.JobConfig{
		Source:  sheetsync.XLSXSource{Path: cfg.Sync.SheetPath, Sheet: cfg.Sync.SheetName},
		Schema:  sheetsync.DefaultSchema(),
		BaseURL: cfg.Sync.BaseURL,
		Timeout: cfg.Sync.Timeout,
	}, logger)
}

// syncTask adapts the job for the scheduler. An overlapping run counts as a
// skip, not a failure.
func syncTask(job *sheetsync.Job) tasks.Func {
	return func(ctx context.Context) error {
		_, err := job.Run(ctx)
		if errors.Is(err, sheetsync.ErrRunInProgress) {
			return fmt.Errorf("%w: %v", tasks.ErrSkip, err)
		}
		return err
	}
}
