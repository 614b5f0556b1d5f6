package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the ledger workload: requests are short read-modify-write
// bursts per wallet, so a modest pool with aggressive health checking beats
// a large idle one.
const (
	dbMaxConns          = 16
	dbMinConns          = 2
	dbMaxConnLifetime   = time.Hour
	dbHealthCheckPeriod = 30 * time.Second
)

// NewPostgresPool configures and returns the PostgreSQL connection pool
// backing the wallet, ride and accounting repositories. appName is
// reported to Postgres so ledger connections are identifiable in
// pg_stat_activity.
func NewPostgresPool(ctx context.Context, url, appName string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = dbMaxConns
	cfg.MinConns = dbMinConns
	cfg.MaxConnLifetime = dbMaxConnLifetime
	cfg.HealthCheckPeriod = dbHealthCheckPeriod
	if appName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
