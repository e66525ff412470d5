package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the discount_codes table. It is safe to apply repeatedly.
const Schema = `
	CREATE TABLE IF NOT EXISTS discount_codes (
		code       VARCHAR(8) PRIMARY KEY CHECK (code ~ '^[A-Z0-9]{7,8}$'),
		is_used    BOOLEAN NOT NULL DEFAULT FALSE,
		batch_id   UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		used_at    TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_discount_codes_batch_id ON discount_codes(batch_id);
	CREATE INDEX IF NOT EXISTS idx_discount_codes_unused ON discount_codes(code) WHERE is_used = FALSE;
`

// EnsureSchema applies Schema to the database behind pool.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
