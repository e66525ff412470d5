package integration

import (
	"context"
	"testing"
	"time"

	"discount-codes/internal/config"
	"discount-codes/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	Config    config.DatabaseConfig
}

// SetupTestDB creates a PostgreSQL test container, a connection pool built
// through database.NewPool and the discount code schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := postgresContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  20,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	pool, err := database.NewPool(ctx, dbConfig, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		Config:    dbConfig,
	}
}

// CleanupDB removes every issued code.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE discount_codes"); err != nil {
		t.Logf("failed to clean discount_codes: %v", err)
	}
}
