package bench

import "github.com/3leaps/gostratus/pkg/controlplane"

// ResolveNewJob determines which job in the snapshot was created after the
// baseline was captured.
//
// It scans the snapshot in listing order and returns the first job whose ID
// is absent from the baseline. Listing order is the only ordering signal the
// control plane exposes without engine-specific timestamp parsing, and in
// this workflow at most one new job is expected per poll cycle.
//
// Known limitation: if two jobs start between baseline capture and the next
// poll, the resolver picks one arbitrarily and mis-tracks the other. The
// runner documents that benchmark runs against one control plane must be
// serialized precisely because of this.
func ResolveNewJob(baseline map[controlplane.JobID]struct{}, snapshot *controlplane.JobSnapshot) (controlplane.JobID, bool) {
	if snapshot == nil {
		return "", false
	}
	for _, j := range snapshot.Jobs {
		if _, known := baseline[j.ID]; !known {
			return j.ID, true
		}
	}
	return "", false
}
