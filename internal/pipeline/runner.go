// Package pipeline runs the fetch -> classify -> diff -> notify ->
// persist pass over a corporation's starbases.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"starbase-monitor/internal/domain"
	"starbase-monitor/internal/metrics"
	"starbase-monitor/internal/notify"
)

// Provider returns the current set of monitored structures.
type Provider interface {
	Structures(ctx context.Context) ([]domain.Structure, error)
}

// SystemResolver maps solar system names to ids for the allow-list.
type SystemResolver interface {
	SolarSystemIDs(ctx context.Context, names []string) (map[string]int32, error)
}

// StateStore persists the starbase id -> state mapping between runs.
type StateStore interface {
	LoadStates(ctx context.Context) (map[int64]domain.State, error)
	SaveStates(ctx context.Context, states map[int64]domain.State) error
}

// Sink delivers a formatted notification.
type Sink interface {
	Send(ctx context.Context, msg notify.Message) error
}

// HistoryWriter appends reported transitions for auditing.
type HistoryWriter interface {
	InsertTransitions(ctx context.Context, runID string, changes []domain.StateChange) error
}

type Runner struct {
	RunID      string
	Provider   Provider
	Resolver   SystemResolver
	Store      StateStore
	Sink       Sink
	History    HistoryWriter // optional
	Thresholds domain.Thresholds

	// AllowedSystems restricts the run to named solar systems; empty
	// means every fetched structure is processed.
	AllowedSystems []string

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Run executes one monitoring pass. Any error before the final state
// save aborts the run and leaves the persisted mapping untouched.
func (r *Runner) Run(ctx context.Context) error {
	structures, err := r.Provider.Structures(ctx)
	if err != nil {
		return fmt.Errorf("fetch structures: %w", err)
	}
	metrics.StructuresFetched.Add(int64(len(structures)))

	structures, err = r.filter(ctx, structures)
	if err != nil {
		return err
	}
	metrics.StructuresFiltered.Add(int64(len(structures)))

	domain.SortByName(structures)
	domain.SortByHoursRemaining(structures)

	previous, err := r.Store.LoadStates(ctx)
	if err != nil {
		return fmt.Errorf("load states: %w", err)
	}

	diff := DetectChanges(structures, previous, r.Thresholds)
	metrics.StructuresReported.Add(int64(len(diff.Changes)))

	// Notify before persisting: if delivery fails the old states stay
	// on record and the next run reports the same transitions again.
	if len(diff.Changes) > 0 {
		msg := notify.BuildMessage(diff.Changes, diff.AnyDanger, r.now())
		if err := r.Sink.Send(ctx, msg); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
		metrics.NotificationsSent.Add(1)
	}

	if err := r.Store.SaveStates(ctx, diff.NewStates); err != nil {
		return fmt.Errorf("save states: %w", err)
	}
	metrics.StatesPersisted.Add(int64(len(diff.NewStates)))

	if r.History != nil && len(diff.Changes) > 0 {
		if err := r.History.InsertTransitions(ctx, r.RunID, diff.Changes); err != nil {
			metrics.HistoryFailures.Add(1)
			log.Printf("history insert failed for %d transitions: %v", len(diff.Changes), err)
		}
	}

	return nil
}

func (r *Runner) filter(ctx context.Context, structures []domain.Structure) ([]domain.Structure, error) {
	if len(r.AllowedSystems) == 0 {
		return structures, nil
	}
	ids, err := r.Resolver.SolarSystemIDs(ctx, r.AllowedSystems)
	if err != nil {
		return nil, fmt.Errorf("resolve allowed systems: %w", err)
	}
	allowed := make(map[int32]bool, len(ids))
	for _, name := range r.AllowedSystems {
		id, ok := ids[name]
		if !ok {
			log.Printf("allowed system %q did not resolve to a solar system id", name)
			continue
		}
		allowed[id] = true
	}
	return FilterBySystem(structures, allowed), nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
