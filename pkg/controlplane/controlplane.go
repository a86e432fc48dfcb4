// Package controlplane defines abstractions for querying a batch-processing
// cluster's management API.
//
// A control plane exposes three operations: listing the currently visible
// jobs, fetching per-job execution metrics, and canceling a job. Any cluster
// exposing an equivalent triad can be adapted behind the Client interface;
// the flink subpackage implements it for the Flink JobManager REST API.
package controlplane

import (
	"context"
	"time"
)

// JobID is the opaque identifier a control plane assigns to a job.
//
// IDs are unique among concurrently visible jobs. A caller does not learn
// the ID of a job it submitted until the job appears in a listing.
type JobID string

// JobStatus is the lifecycle state of a cluster job.
type JobStatus string

const (
	StatusPending  JobStatus = "pending"
	StatusRunning  JobStatus = "running"
	StatusFinished JobStatus = "finished"
	StatusFailed   JobStatus = "failed"
	StatusCanceled JobStatus = "canceled"

	// StatusUnknown means no authoritative status was obtained. It is a
	// local-only state: control planes never report it.
	StatusUnknown JobStatus = "unknown"
)

// IsTerminal reports whether no further status transition can occur.
func (s JobStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusFailed || s == StatusCanceled
}

// String returns the string representation of the status.
func (s JobStatus) String() string {
	return string(s)
}

// JobSummary is one entry from a job listing.
type JobSummary struct {
	ID     JobID
	Status JobStatus
}

// JobSnapshot is the set of jobs observed from a single listing call.
//
// Listing order as returned by the control plane is preserved: it is the
// only ordering signal available and is used as a tie-break when resolving
// which job a submission created.
type JobSnapshot struct {
	Jobs []JobSummary
}

// IDs returns the set of job identifiers in the snapshot.
func (s *JobSnapshot) IDs() map[JobID]struct{} {
	ids := make(map[JobID]struct{}, len(s.Jobs))
	for _, j := range s.Jobs {
		ids[j.ID] = struct{}{}
	}
	return ids
}

// StatusOf returns the status of the given job, if present in the snapshot.
func (s *JobSnapshot) StatusOf(id JobID) (JobStatus, bool) {
	for _, j := range s.Jobs {
		if j.ID == id {
			return j.Status, true
		}
	}
	return StatusUnknown, false
}

// Running returns the IDs of all jobs listed as running.
func (s *JobSnapshot) Running() []JobID {
	var ids []JobID
	for _, j := range s.Jobs {
		if j.Status == StatusRunning {
			ids = append(ids, j.ID)
		}
	}
	return ids
}

// TaskMetrics holds the counters one execution unit (e.g. one parallel
// operator instance) reports. Owned by the control plane; read-only here.
type TaskMetrics struct {
	RecordsIn  int64
	RecordsOut int64
	BytesIn    int64
	BytesOut   int64
}

// JobMetrics is the job-level view returned by a detail query: identity,
// the engine-reported duration, and the per-task counters.
type JobMetrics struct {
	ID       JobID
	Name     string
	Duration time.Duration
	Tasks    []TaskMetrics
}

// Client abstracts the cluster management API.
//
// Implementations should:
//   - Confine side effects to network I/O (no local state)
//   - Be safe for concurrent use
//   - Classify failures per the sentinel errors in this package
type Client interface {
	// ListJobs returns a snapshot of the currently visible jobs.
	// Network or timeout failures are reported as ErrTransient; callers
	// must treat them as "no information this round", not as terminal.
	ListJobs(ctx context.Context) (*JobSnapshot, error)

	// JobDetail returns metrics for a single job.
	// Returns ErrNotFound if the control plane has already purged the job.
	JobDetail(ctx context.Context, id JobID) (*JobMetrics, error)

	// CancelJob requests cancellation of a job. Best-effort: canceling a
	// job that already terminated is not an error worth surfacing.
	CancelJob(ctx context.Context, id JobID) error
}
