package bench

import (
	"context"
	"sync"
	"time"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

func secs(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

// listStep scripts one ListJobs response.
type listStep struct {
	snap *controlplane.JobSnapshot
	err  error
}

// fakeClient is a scripted in-memory control plane. Each ListJobs call
// consumes the next step; the last step repeats once the script runs out.
type fakeClient struct {
	mu sync.Mutex

	steps     []listStep
	listCalls int

	details     map[controlplane.JobID]*controlplane.JobMetrics
	detailErr   error
	detailCalls int
	// detailFailFrom, when > 0, makes detail call number N and later
	// return detailErr (1-based).
	detailFailFrom int

	cancelErr map[controlplane.JobID]error
	canceled  []controlplane.JobID
}

var _ controlplane.Client = (*fakeClient)(nil)

func (f *fakeClient) ListJobs(ctx context.Context) (*controlplane.JobSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if len(f.steps) == 0 {
		return &controlplane.JobSnapshot{}, nil
	}
	i := f.listCalls - 1
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	step := f.steps[i]
	if step.err != nil {
		return nil, step.err
	}
	return step.snap, nil
}

func (f *fakeClient) JobDetail(ctx context.Context, id controlplane.JobID) (*controlplane.JobMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.detailCalls++
	if f.detailErr != nil && (f.detailFailFrom == 0 || f.detailCalls >= f.detailFailFrom) {
		return nil, f.detailErr
	}
	if m, ok := f.details[id]; ok {
		return m, nil
	}
	return nil, controlplane.ErrNotFound
}

func (f *fakeClient) CancelJob(ctx context.Context, id controlplane.JobID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.cancelErr[id]; ok && err != nil {
		return err
	}
	f.canceled = append(f.canceled, id)
	return nil
}

// fakeClock drives the monitor's injected now/sleep: sleeping advances the
// clock instead of blocking.
type fakeClock struct {
	mu  sync.Mutex
	t   time.Time
	log []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.log = append(c.log, d)
}

// statuses builds a snapshot with explicit statuses, preserving order.
func statuses(pairs ...controlplane.JobSummary) *controlplane.JobSnapshot {
	return &controlplane.JobSnapshot{Jobs: pairs}
}

func js(id string, status controlplane.JobStatus) controlplane.JobSummary {
	return controlplane.JobSummary{ID: controlplane.JobID(id), Status: status}
}
