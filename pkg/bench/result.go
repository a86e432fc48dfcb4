package bench

import (
	"time"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

// JobReport combines the aggregated counters with the engine-reported
// duration for the tracked job.
type JobReport struct {
	Name     string        `json:"name,omitempty"`
	Duration time.Duration `json:"duration"`
	Totals   Totals        `json:"totals"`
}

// Result is the outcome of one benchmark run.
//
// Exactly one Result is produced per run. Its Status is terminal unless the
// wait timed out, in which case it is StatusUnknown. The struct is immutable
// once the monitor loop exits.
type Result struct {
	// RunID correlates this result with its output records.
	RunID string `json:"run_id"`

	// Workload is the caller-supplied workload name.
	Workload string `json:"workload"`

	// JobID is the resolved cluster job, empty if none was ever identified.
	JobID controlplane.JobID `json:"job_id,omitempty"`

	// Status is the final observed (or inferred) job status.
	Status controlplane.JobStatus `json:"status"`

	// Elapsed is wall-clock time from just before submission to loop exit.
	Elapsed time.Duration `json:"elapsed"`

	// Metrics is the last aggregate fetched for the job, nil if none.
	Metrics *JobReport `json:"metrics,omitempty"`

	// RecordsProcessed and Throughput are filled in by the runner for
	// finished jobs.
	RecordsProcessed int64   `json:"records_processed,omitempty"`
	Throughput       float64 `json:"throughput_records_per_sec,omitempty"`

	// Unverified marks completions established by the fallback heuristic
	// or runs that ended on timeout: the status was not confirmed by the
	// control plane and reports should flag it distinctly.
	Unverified bool `json:"unverified,omitempty"`
}

// throughput computes records/sec for a finished run.
//
// The engine-reported job duration is preferred because it excludes
// queueing and polling overhead; wall clock is the fallback when the
// control plane reports no duration.
func throughput(records int64, jobDuration, elapsed time.Duration) float64 {
	d := jobDuration
	if d <= 0 {
		d = elapsed
	}
	if d <= 0 || records <= 0 {
		return 0
	}
	return float64(records) / d.Seconds()
}
