package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"starbase-monitor/internal/config"
	"starbase-monitor/internal/domain"
)

// HistoryStore appends reported fuel transitions to Postgres for later
// auditing. It is an optional collaborator; the run core only depends
// on the state store.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(ctx context.Context, cfg *config.Config) (*HistoryStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &HistoryStore{pool: pool}, nil
}

func (s *HistoryStore) Close() {
	s.pool.Close()
}

var historyColumns = []string{
	"run_id",
	"starbase_id",
	"display_name",
	"previous_state",
	"current_state",
	"fuel_blocks",
	"hours_remaining",
	"created_at",
}

// InsertTransitions records one row per reported change.
func (s *HistoryStore) InsertTransitions(ctx context.Context, runID string, changes []domain.StateChange) error {
	if len(changes) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(changes))
	for i, ch := range changes {
		rows[i] = []any{
			runID,
			ch.Structure.StarbaseID,
			ch.Structure.DisplayName,
			string(ch.Previous),
			string(ch.Current),
			ch.Structure.FuelBlocks,
			ch.Structure.HoursRemaining(),
			now,
		}
	}

	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"starbase_fuel_history"},
		historyColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("CopyFrom failed for %d transitions: %w", len(changes), err)
	}
	return nil
}
