package bench

import "github.com/3leaps/gostratus/pkg/controlplane"

// Totals is the job-level aggregate of per-task counters.
type Totals struct {
	RecordsIn  int64 `json:"records_in"`
	RecordsOut int64 `json:"records_out"`
	BytesIn    int64 `json:"bytes_in"`
	BytesOut   int64 `json:"bytes_out"`
}

// AggregateTasks reduces per-task counters into job-level totals.
//
// Returns the zero aggregate for an empty task list (a job still
// initializing has no discoverable tasks yet). There is no partial
// aggregation: the monitor treats every aggregate as provisional and
// re-fetches on the next poll until the job is terminal.
func AggregateTasks(tasks []controlplane.TaskMetrics) Totals {
	var t Totals
	for _, task := range tasks {
		t.RecordsIn += task.RecordsIn
		t.RecordsOut += task.RecordsOut
		t.BytesIn += task.BytesIn
		t.BytesOut += task.BytesOut
	}
	return t
}
