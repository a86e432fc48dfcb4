package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

func newTestRunner(client controlplane.Client, cfg RunnerConfig) *Runner {
	if cfg.Monitor.PollInterval == 0 {
		cfg.Monitor.PollInterval = time.Second
	}
	if cfg.Monitor.MaxWait == 0 {
		cfg.Monitor.MaxWait = 30 * time.Second
	}
	r := NewRunner(client, cfg)
	clock := newFakeClock()
	r.sleep = clock.Sleep
	r.monitor.now = clock.Now
	r.monitor.sleep = clock.Sleep
	return r
}

func TestRunnerCleanupTolerance(t *testing.T) {
	// Three running jobs; canceling B fails. A and C must still be
	// canceled and the run must proceed to submission.
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses(
				js("A", controlplane.StatusRunning),
				js("B", controlplane.StatusRunning),
				js("C", controlplane.StatusRunning),
			)},
			{snap: statuses()}, // monitor baseline after cleanup
		},
		cancelErr: map[controlplane.JobID]error{
			"B": fmt.Errorf("%w: cancel timed out", controlplane.ErrTransient),
		},
	}

	submitted := false
	r := newTestRunner(client, RunnerConfig{Monitor: Config{MaxWait: 2 * time.Second}})
	res := r.Run(context.Background(), "identity", SubmitterFunc(func(ctx context.Context) (Outcome, error) {
		submitted = true
		return Outcome{Succeeded: true}, nil
	}), Params{InputRecords: 100})

	assert.True(t, submitted)
	assert.ElementsMatch(t, []controlplane.JobID{"A", "C"}, client.canceled)
	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.NotEmpty(t, res.RunID)
}

func TestRunnerCleanupSkipsNonRunning(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses(
				js("A", controlplane.StatusFinished),
				js("B", controlplane.StatusPending),
			)},
			{snap: statuses()},
		},
	}

	r := newTestRunner(client, RunnerConfig{Monitor: Config{MaxWait: 2 * time.Second}})
	_ = r.Run(context.Background(), "identity", okSubmitter(), Params{})

	assert.Empty(t, client.canceled)
}

func TestRunnerThroughputFromJobDuration(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()}, // cleanup listing
			{snap: statuses()}, // monitor baseline
			{snap: statuses(js("J", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"J": {
				ID:       "J",
				Duration: 5 * time.Second,
				Tasks:    []controlplane.TaskMetrics{{RecordsIn: 1000}},
			},
		},
	}

	r := newTestRunner(client, RunnerConfig{})
	res := r.Run(context.Background(), "identity", okSubmitter(), Params{InputRecords: 500})

	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.Equal(t, int64(1000), res.RecordsProcessed)
	assert.InDelta(t, 200.0, res.Throughput, 0.001)
}

func TestRunnerRecordsDefaultToInputCount(t *testing.T) {
	// Aggregation jobs can report zero read-records; the configured input
	// count substitutes so throughput stays representative.
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()},
			{snap: statuses()},
			{snap: statuses(js("J", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"J": {ID: "J", Duration: 4 * time.Second, Tasks: nil},
		},
	}

	r := newTestRunner(client, RunnerConfig{})
	res := r.Run(context.Background(), "wordcount", okSubmitter(), Params{InputRecords: 2000})

	assert.Equal(t, int64(2000), res.RecordsProcessed)
	assert.InDelta(t, 500.0, res.Throughput, 0.001)
}

// ephemeralPlane is a stateful fake: each submission materializes one new
// job that runs for a fixed number of listings and then finishes, like a
// short batch job on a real cluster.
type ephemeralPlane struct {
	mu      sync.Mutex
	seq     int
	jobs    map[controlplane.JobID]*ephemeralJob
	order   []controlplane.JobID
	runFor  int
	listing int
}

type ephemeralJob struct {
	createdAt int // listing count at creation
	canceled  bool
}

func newEphemeralPlane(runFor int) *ephemeralPlane {
	return &ephemeralPlane{jobs: map[controlplane.JobID]*ephemeralJob{}, runFor: runFor}
}

func (p *ephemeralPlane) submit() controlplane.JobID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := controlplane.JobID(fmt.Sprintf("job-%d", p.seq))
	p.jobs[id] = &ephemeralJob{createdAt: p.listing}
	p.order = append(p.order, id)
	return id
}

func (p *ephemeralPlane) statusLocked(j *ephemeralJob) controlplane.JobStatus {
	if j.canceled {
		return controlplane.StatusCanceled
	}
	if p.listing-j.createdAt >= p.runFor {
		return controlplane.StatusFinished
	}
	return controlplane.StatusRunning
}

func (p *ephemeralPlane) ListJobs(ctx context.Context) (*controlplane.JobSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listing++
	snap := &controlplane.JobSnapshot{}
	for _, id := range p.order {
		snap.Jobs = append(snap.Jobs, controlplane.JobSummary{ID: id, Status: p.statusLocked(p.jobs[id])})
	}
	return snap, nil
}

func (p *ephemeralPlane) JobDetail(ctx context.Context, id controlplane.JobID) (*controlplane.JobMetrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.jobs[id]; !ok {
		return nil, controlplane.ErrNotFound
	}
	return &controlplane.JobMetrics{
		ID:       id,
		Duration: time.Second,
		Tasks:    []controlplane.TaskMetrics{{RecordsIn: 100}},
	}, nil
}

func (p *ephemeralPlane) CancelJob(ctx context.Context, id controlplane.JobID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	j, ok := p.jobs[id]
	if !ok {
		return controlplane.ErrNotFound
	}
	j.canceled = true
	return nil
}

func TestRunnerIdempotentRepeatRuns(t *testing.T) {
	plane := newEphemeralPlane(2)
	sub := SubmitterFunc(func(ctx context.Context) (Outcome, error) {
		plane.submit()
		return Outcome{Succeeded: true}, nil
	})

	r := newTestRunner(plane, RunnerConfig{})

	first := r.Run(context.Background(), "identity", sub, Params{InputRecords: 100})
	second := r.Run(context.Background(), "identity", sub, Params{InputRecords: 100})

	require.Equal(t, controlplane.StatusFinished, first.Status)
	require.Equal(t, controlplane.StatusFinished, second.Status)

	assert.NotEmpty(t, first.JobID)
	assert.NotEmpty(t, second.JobID)
	assert.NotEqual(t, first.JobID, second.JobID)
	assert.NotEqual(t, first.RunID, second.RunID)

	// No running jobs left behind after the second run.
	snap, err := plane.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Running())
}

func TestRunnerProceedsWhenCleanupListingFails(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{
			{err: errors.New("boom")}, // cleanup listing
			{snap: statuses()},        // monitor baseline
		},
	}

	r := newTestRunner(client, RunnerConfig{Monitor: Config{MaxWait: 2 * time.Second}})
	res := r.Run(context.Background(), "identity", okSubmitter(), Params{})

	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.True(t, res.Unverified)
}
