//go:build ignore

package main

import (
	"context"
	"fmt"
	"os"

	"discount-codes/internal/config"

	"github.com/jackc/pgx/v5"
)

// Connects with the server's configuration and prints the state of the
// discount_codes table.
//
//	go run scripts/check_db.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	err = conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to database: %s\n", dbName)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT to_regclass('public.discount_codes') IS NOT NULL").Scan(&exists)
	if err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	if !exists {
		fmt.Println("Table discount_codes does not exist yet; it is created on server start")
		return
	}

	rows, err := conn.Query(ctx, `
		SELECT length(code), count(*), count(*) FILTER (WHERE is_used)
		FROM discount_codes
		GROUP BY length(code)
		ORDER BY length(code)`)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	fmt.Println("\nIssued discount codes:")
	for rows.Next() {
		var length int
		var total, used int64
		if err := rows.Scan(&length, &total, &used); err != nil {
			fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  - length %d: %d issued, %d used\n", length, total, used)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Rows failed: %v\n", err)
		os.Exit(1)
	}
}
