package metrics

import (
	"fmt"
	"sync/atomic"
)

var (
	StructuresFetched  atomic.Int64
	StructuresFiltered atomic.Int64
	StructuresReported atomic.Int64
	NotificationsSent  atomic.Int64
	StatesPersisted    atomic.Int64
	HistoryFailures    atomic.Int64
)

// Summary renders the run counters for the end-of-run log line.
func Summary() string {
	return fmt.Sprintf(
		"fetched=%d filtered=%d reported=%d notifications=%d persisted=%d history_failures=%d",
		StructuresFetched.Load(),
		StructuresFiltered.Load(),
		StructuresReported.Load(),
		NotificationsSent.Load(),
		StatesPersisted.Load(),
		HistoryFailures.Load(),
	)
}
