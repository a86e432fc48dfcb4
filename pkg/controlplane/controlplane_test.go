package controlplane

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusFinished, true},
		{StatusFailed, true},
		{StatusCanceled, true},
		{StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestSnapshotIDs(t *testing.T) {
	snap := &JobSnapshot{Jobs: []JobSummary{
		{ID: "a", Status: StatusRunning},
		{ID: "b", Status: StatusFinished},
	}}

	ids := snap.IDs()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, JobID("a"))
	assert.Contains(t, ids, JobID("b"))

	assert.Empty(t, (&JobSnapshot{}).IDs())
}

func TestSnapshotStatusOf(t *testing.T) {
	snap := &JobSnapshot{Jobs: []JobSummary{
		{ID: "a", Status: StatusRunning},
	}}

	status, ok := snap.StatusOf("a")
	assert.True(t, ok)
	assert.Equal(t, StatusRunning, status)

	status, ok = snap.StatusOf("missing")
	assert.False(t, ok)
	assert.Equal(t, StatusUnknown, status)
}

func TestSnapshotRunning(t *testing.T) {
	snap := &JobSnapshot{Jobs: []JobSummary{
		{ID: "a", Status: StatusFinished},
		{ID: "b", Status: StatusRunning},
		{ID: "c", Status: StatusPending},
		{ID: "d", Status: StatusRunning},
	}}

	assert.Equal(t, []JobID{"b", "d"}, snap.Running())
	assert.Empty(t, (&JobSnapshot{}).Running())
}

func TestClientError(t *testing.T) {
	inner := fmt.Errorf("wrapped: %w", ErrNotFound)

	err := &ClientError{Op: "JobDetail", Endpoint: "/jobs/abc", Err: inner}
	assert.Equal(t, "JobDetail /jobs/abc: wrapped: job not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransient(err))

	bare := &ClientError{Op: "ListJobs", Err: ErrTransient}
	assert.Equal(t, "ListJobs: transient query failure", bare.Error())
	assert.True(t, IsTransient(bare))
}
