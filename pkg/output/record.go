// Package output provides JSONL output for benchmark results.
//
// Output is structured as typed record envelopes containing results,
// per-tick progress updates, errors, and session summaries. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: gostratus.<type>.v<version>
const (
	// TypeResult identifies final per-run benchmark results.
	TypeResult = "gostratus.result.v1"

	// TypeProgress identifies per-tick progress records.
	TypeProgress = "gostratus.progress.v1"

	// TypeError identifies error records.
	TypeError = "gostratus.error.v1"

	// TypeSummary identifies end-of-session summary records.
	TypeSummary = "gostratus.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line contains a Record with a type-specific payload in the Data
// field. The type field determines how to interpret Data.
type Record struct {
	// Type identifies the record type (e.g., "gostratus.result.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// RunID is the correlation ID for the benchmark session.
	RunID string `json:"run_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ProgressRecord is the data payload for per-tick progress updates.
type ProgressRecord struct {
	// Workload is the workload being monitored.
	Workload string `json:"workload"`

	// JobID is the tracked cluster job.
	JobID string `json:"job_id"`

	// Status is the last status observed from the control plane.
	Status string `json:"status"`

	// RecordsIn is the aggregate read-record count across tasks.
	RecordsIn int64 `json:"records_in"`
}

// ErrorRecord is the data payload for errors.
//
// Errors are emitted as records rather than aborting the session, so a
// failed workload still leaves the other workloads' results intact.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Workload is the workload related to this error, if applicable.
	Workload string `json:"workload,omitempty"`
}

// SummaryRecord is the data payload for end-of-session summaries.
type SummaryRecord struct {
	// Workloads is the number of workloads attempted.
	Workloads int `json:"workloads"`

	// Finished is the number that reached a confirmed or inferred
	// finished state.
	Finished int `json:"finished"`

	// Unverified is the number of finished results established by the
	// completion fallback or ending on timeout.
	Unverified int `json:"unverified"`

	// Duration is the whole session's wall-clock time.
	Duration time.Duration `json:"duration"`
}
