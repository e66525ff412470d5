package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"discount-codes/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a PostgreSQL testcontainer and returns a matching DatabaseConfig.
func startPostgres(t *testing.T) config.DatabaseConfig {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:            host,
		Port:            portNum,
		User:            "postgres",
		Password:        "postgres",
		Database:        "testdb",
		MaxConnections:  5,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}
}

func TestNewPool_AndEnsureSchema(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	pool, err := NewPool(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer pool.Close()

	var appName string
	require.NoError(t, pool.QueryRow(ctx, "SELECT current_setting('application_name')").Scan(&appName))
	assert.Equal(t, config.ServiceName, appName)

	require.NoError(t, EnsureSchema(ctx, pool))
	require.NoError(t, EnsureSchema(ctx, pool), "schema must be idempotent")

	_, err = pool.Exec(ctx,
		`INSERT INTO discount_codes (code, batch_id) VALUES ('ABCDEFG', gen_random_uuid())`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO discount_codes (code, batch_id) VALUES ('abc', gen_random_uuid())`)
	assert.Error(t, err, "lower-case and short codes violate the check constraint")

	_, err = pool.Exec(ctx,
		`INSERT INTO discount_codes (code, batch_id) VALUES ('ABCDEFG', gen_random_uuid())`)
	assert.Error(t, err, "duplicate codes violate the primary key")
}

func TestNewPool_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.DatabaseConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "postgres",
		Password:       "postgres",
		Database:       "testdb",
		MaxConnections: 1,
	}

	pool, err := NewPool(ctx, cfg, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestNewPoolConfig(t *testing.T) {
	tests := []struct {
		name            string
		cfg             config.DatabaseConfig
		expectMax       int32
		expectMin       int32
		expectLifetime  time.Duration
		keepLibDefaults bool
	}{
		{
			name: "Configured limits",
			cfg: config.DatabaseConfig{
				Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d",
				MaxConnections: 25, MinConnections: 5, MaxConnLifetime: 600,
			},
			expectMax:      25,
			expectMin:      5,
			expectLifetime: 10 * time.Minute,
		},
		{
			name: "Zero values keep pgxpool defaults",
			cfg: config.DatabaseConfig{
				Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d",
			},
			keepLibDefaults: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poolConfig, err := newPoolConfig(tt.cfg)
			require.NoError(t, err)

			if tt.keepLibDefaults {
				assert.Positive(t, poolConfig.MaxConns)
				assert.Positive(t, poolConfig.MaxConnLifetime)
			} else {
				assert.Equal(t, tt.expectMax, poolConfig.MaxConns)
				assert.Equal(t, tt.expectMin, poolConfig.MinConns)
				assert.Equal(t, tt.expectLifetime, poolConfig.MaxConnLifetime)
			}
			assert.Equal(t, maxConnIdleTime, poolConfig.MaxConnIdleTime)
			assert.Equal(t, healthCheckPeriod, poolConfig.HealthCheckPeriod)
			assert.Equal(t, config.ServiceName, poolConfig.ConnConfig.RuntimeParams["application_name"])
		})
	}
}
