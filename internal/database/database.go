package database

import (
	"context"
	"fmt"
	"time"

	"discount-codes/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	maxConnIdleTime   = 30 * time.Minute
	healthCheckPeriod = time.Minute
	pingTimeout       = 10 * time.Second
)

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With().Str("component", "database").Logger()

	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_connections", poolConfig.MaxConns).
		Int32("min_connections", poolConfig.MinConns).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Error().Err(err).Msg("database is unreachable")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// newPoolConfig maps DatabaseConfig onto pgxpool settings. Connections are
// tagged with the service name so they can be told apart in pg_stat_activity.
func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	}
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.RuntimeParams["application_name"] = config.ServiceName

	return poolConfig, nil
}
