package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "fuel_monitor"),
		dbGetEnv("DB_PASSWORD", "fuel_monitor"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "fuel_monitor"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_history_table(ctx, conn)
	step2_indexes(ctx, conn)
	step3_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./scripts/seed_states")
}

func step1_history_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: starbase_fuel_history table ─────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS starbase_fuel_history (
			id               BIGSERIAL   PRIMARY KEY,

			-- Correlates all transitions reported by one run
			run_id           TEXT        NOT NULL,

			-- Identity
			starbase_id      BIGINT      NOT NULL,
			display_name     TEXT        NOT NULL,

			-- Must exactly match the domain.State constants:
			-- unknown | good | warning | danger
			previous_state   TEXT        NOT NULL,
			current_state    TEXT        NOT NULL,

			-- Fuel snapshot at the moment of the transition
			fuel_blocks      BIGINT      NOT NULL,
			hours_remaining  BIGINT      NOT NULL,

			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),

			CONSTRAINT chk_previous_state CHECK (
				previous_state IN ('unknown', 'good', 'warning', 'danger')
			),
			CONSTRAINT chk_current_state CHECK (
				current_state IN ('good', 'warning', 'danger')
			)
		);
	`, "starbase_fuel_history table created")
}

func step2_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_history_starbase_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_history_starbase_time
				  ON starbase_fuel_history (starbase_id, created_at DESC);`,
			why: "query: transition history for one starbase",
		},
		{
			name: "idx_history_run",
			sql: `CREATE INDEX IF NOT EXISTS idx_history_run
				  ON starbase_fuel_history (run_id);`,
			why: "query: everything one run reported",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-30s ← %s", idx.name, idx.why),
		)
	}
}

func step3_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Verification ────────────────────────")

	var exists bool
	err := conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_name = 'starbase_fuel_history'
		)
	`).Scan(&exists)
	if err != nil || !exists {
		log.Fatalf("Table starbase_fuel_history was not created: %v", err)
	}
	fmt.Println("  ✓ table: starbase_fuel_history")

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = 'starbase_fuel_history'
		AND indexname LIKE 'idx_%'
	`).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// execOrFatal runs a SQL statement and prints result or exits on error
func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
