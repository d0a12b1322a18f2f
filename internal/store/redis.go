package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"starbase-monitor/internal/config"
	"starbase-monitor/internal/domain"
)

// stateKey is the hash holding starbase_id -> last observed fuel state.
const stateKey = "starbase:fuel:state"

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// LoadStates reads the whole persisted mapping in one call. Starbases
// absent from the hash are simply missing from the result; callers
// treat them as unknown.
func (r *RedisStore) LoadStates(ctx context.Context) (map[int64]domain.State, error) {
	raw, err := r.client.HGetAll(ctx, stateKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load states: %w", err)
	}

	states := make(map[int64]domain.State, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redis state key %q is not a starbase id: %w", field, err)
		}
		states[id] = domain.State(value)
	}
	return states, nil
}

// SaveStates writes every entry in one MULTI/EXEC pipeline, so the
// run's full mapping commits atomically at the end.
func (r *RedisStore) SaveStates(ctx context.Context, states map[int64]domain.State) error {
	if len(states) == 0 {
		return nil
	}

	pairs := make([]any, 0, len(states)*2)
	for id, state := range states {
		pairs = append(pairs, strconv.FormatInt(id, 10), string(state))
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, stateKey, pairs...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save states: %w", err)
	}
	return nil
}
