package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/inventory-sync/pkg/configuration"
)

func openPool(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(dialCtx, conf.Database.Opts)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("failed to create connection pool: %w", err))
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("failed to reach database: %w", err))
	}
	return pool, nil
}
