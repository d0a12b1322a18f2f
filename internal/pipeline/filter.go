package pipeline

import "starbase-monitor/internal/domain"

// FilterBySystem keeps only structures anchored in an allowed solar
// system. An empty allow set means no filtering. Order is preserved.
func FilterBySystem(structures []domain.Structure, allowed map[int32]bool) []domain.Structure {
	if len(allowed) == 0 {
		return structures
	}
	kept := structures[:0:0]
	for _, s := range structures {
		if allowed[s.SystemID] {
			kept = append(kept, s)
		}
	}
	return kept
}
