package db

import (
	"context"
	"fmt"

	"menu-service/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a pgx pool and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
