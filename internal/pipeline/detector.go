package pipeline

import "starbase-monitor/internal/domain"

// Diff is the outcome of comparing one run's classifications against
// the persisted mapping.
type Diff struct {
	// Changes holds, in input order, every structure whose state
	// moved since the last run.
	Changes []domain.StateChange

	// AnyDanger is true when at least one reported change landed in
	// danger. A structure that was already danger last run does not
	// re-trigger it.
	AnyDanger bool

	// NewStates carries the current state of every processed
	// structure, changed or not; this is what gets persisted.
	NewStates map[int64]domain.State
}

// DetectChanges classifies each structure and joins it against the
// previous mapping. Structures with no persisted record diff against
// unknown, so a first observation always reports.
func DetectChanges(structures []domain.Structure, previous map[int64]domain.State, t domain.Thresholds) Diff {
	diff := Diff{NewStates: make(map[int64]domain.State, len(structures))}

	for _, s := range structures {
		current := s.FuelState(t)
		diff.NewStates[s.StarbaseID] = current

		prev, ok := previous[s.StarbaseID]
		if !ok {
			prev = domain.StateUnknown
		}
		if current == prev {
			continue
		}

		diff.Changes = append(diff.Changes, domain.StateChange{
			Structure: s,
			Previous:  prev,
			Current:   current,
		})
		if current == domain.StateDanger {
			diff.AnyDanger = true
		}
	}
	return diff
}
