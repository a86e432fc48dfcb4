package bench

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

func okSubmitter() Submitter {
	return SubmitterFunc(func(ctx context.Context) (Outcome, error) {
		return Outcome{Succeeded: true}, nil
	})
}

func newTestMonitor(client controlplane.Client, cfg Config) (*Monitor, *fakeClock) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = 60 * time.Second
	}
	m := NewMonitor(client, cfg)
	clock := newFakeClock()
	m.now = clock.Now
	m.sleep = clock.Sleep
	return m, clock
}

func TestMonitorTerminalShortCircuit(t *testing.T) {
	// Baseline sees A; the new job C appears on the 2nd poll and finishes
	// on the 3rd. The loop must exit at tick 3 of the 60-tick budget.
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses(js("A", controlplane.StatusRunning))}, // baseline
			{snap: statuses(js("A", controlplane.StatusRunning))},
			{snap: statuses(js("A", controlplane.StatusRunning), js("C", controlplane.StatusRunning))},
			{snap: statuses(js("A", controlplane.StatusRunning), js("C", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"C": {
				ID:       "C",
				Name:     "wordcount",
				Duration: 4 * time.Second,
				Tasks: []controlplane.TaskMetrics{
					{RecordsIn: 10, RecordsOut: 5, BytesIn: 100, BytesOut: 50},
					{RecordsIn: 20, RecordsOut: 0, BytesIn: 200, BytesOut: 0},
				},
			},
		},
	}

	m, clock := newTestMonitor(client, Config{})
	res := m.Run(context.Background(), "wordcount", okSubmitter())

	assert.Equal(t, controlplane.JobID("C"), res.JobID)
	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.False(t, res.Unverified)

	require.NotNil(t, res.Metrics)
	assert.Equal(t, Totals{RecordsIn: 30, RecordsOut: 5, BytesIn: 300, BytesOut: 50}, res.Metrics.Totals)
	assert.Equal(t, 4*time.Second, res.Metrics.Duration)

	// 1 baseline + 3 poll listings, not 60.
	assert.Equal(t, 4, client.listCalls)
	assert.Equal(t, 3*time.Second, res.Elapsed)
	assert.Len(t, clock.log, 3)
}

func TestMonitorTimeoutYieldsUnknown(t *testing.T) {
	// The job never leaves running; strict mode must report unknown after
	// exactly MaxWait, not before and not indefinitely after.
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()}, // baseline
			{snap: statuses(js("C", controlplane.StatusRunning))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"C": {ID: "C", Tasks: []controlplane.TaskMetrics{{RecordsIn: 1}}},
		},
	}

	m, clock := newTestMonitor(client, Config{
		PollInterval:     time.Second,
		MaxWait:          10 * time.Second,
		StrictCompletion: true,
	})
	res := m.Run(context.Background(), "identity", okSubmitter())

	assert.Equal(t, controlplane.StatusUnknown, res.Status)
	assert.True(t, res.Unverified)
	assert.Equal(t, controlplane.JobID("C"), res.JobID)
	assert.Equal(t, 10*time.Second, res.Elapsed)
	assert.Len(t, clock.log, 10)
}

func TestMonitorFallbackOnSuccessfulSubmitter(t *testing.T) {
	// No job ever appears but the front-end reported success: the result
	// is finished with no metrics, flagged unverified.
	client := &fakeClient{
		steps: []listStep{{snap: statuses()}},
	}

	m, _ := newTestMonitor(client, Config{PollInterval: time.Second, MaxWait: 3 * time.Second})
	res := m.Run(context.Background(), "identity", okSubmitter())

	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.Empty(t, res.JobID)
	assert.Nil(t, res.Metrics)
	assert.True(t, res.Unverified)
}

func TestMonitorStrictDisablesFallback(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{{snap: statuses()}},
	}

	m, _ := newTestMonitor(client, Config{
		PollInterval:     time.Second,
		MaxWait:          3 * time.Second,
		StrictCompletion: true,
	})
	res := m.Run(context.Background(), "identity", okSubmitter())

	assert.Equal(t, controlplane.StatusUnknown, res.Status)
	assert.True(t, res.Unverified)
}

func TestMonitorNoFallbackOnFailedSubmitter(t *testing.T) {
	// The front-end exited nonzero (but did run): no fallback applies.
	client := &fakeClient{
		steps: []listStep{{snap: statuses()}},
	}

	m, _ := newTestMonitor(client, Config{PollInterval: time.Second, MaxWait: 3 * time.Second})
	res := m.Run(context.Background(), "identity", SubmitterFunc(func(ctx context.Context) (Outcome, error) {
		return Outcome{Succeeded: false}, nil
	}))

	assert.Equal(t, controlplane.StatusUnknown, res.Status)
	assert.True(t, res.Unverified)
}

func TestMonitorSubmissionErrorSkipsPolling(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{{snap: statuses()}},
	}

	m, _ := newTestMonitor(client, Config{})
	res := m.Run(context.Background(), "identity", SubmitterFunc(func(ctx context.Context) (Outcome, error) {
		return Outcome{}, errors.New("sql client could not start")
	}))

	assert.Equal(t, controlplane.StatusFailed, res.Status)
	// Only the baseline listing happened; no polling.
	assert.Equal(t, 1, client.listCalls)
}

func TestMonitorToleratesTransientListingFailures(t *testing.T) {
	// Ticks 1-2 fail transiently; the job appears on tick 3 and finishes
	// on tick 4. The failed ticks still count against the budget.
	transient := fmt.Errorf("%w: connection refused", controlplane.ErrTransient)
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()}, // baseline
			{err: transient},
			{err: transient},
			{snap: statuses(js("C", controlplane.StatusRunning))},
			{snap: statuses(js("C", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"C": {ID: "C", Tasks: []controlplane.TaskMetrics{{RecordsIn: 42}}},
		},
	}

	m, _ := newTestMonitor(client, Config{PollInterval: time.Second, MaxWait: 10 * time.Second})
	res := m.Run(context.Background(), "identity", okSubmitter())

	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.Equal(t, 4*time.Second, res.Elapsed)
	require.NotNil(t, res.Metrics)
	assert.Equal(t, int64(42), res.Metrics.Totals.RecordsIn)
}

func TestMonitorKeepsPriorMetricsOnDetailFailure(t *testing.T) {
	// The job is purged between listing and detail on its terminal tick;
	// the previously fetched aggregate must survive.
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()}, // baseline
			{snap: statuses(js("C", controlplane.StatusRunning))},
			{snap: statuses(js("C", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"C": {ID: "C", Tasks: []controlplane.TaskMetrics{{RecordsIn: 99}}},
		},
		detailErr:      controlplane.ErrNotFound,
		detailFailFrom: 2,
	}

	m, _ := newTestMonitor(client, Config{PollInterval: time.Second, MaxWait: 10 * time.Second})
	res := m.Run(context.Background(), "identity", okSubmitter())
	require.NotNil(t, res.Metrics)
	assert.Equal(t, int64(99), res.Metrics.Totals.RecordsIn)
	assert.Equal(t, controlplane.StatusFinished, res.Status)
}

func TestMonitorProgressCallback(t *testing.T) {
	client := &fakeClient{
		steps: []listStep{
			{snap: statuses()}, // baseline
			{snap: statuses(js("C", controlplane.StatusRunning))},
			{snap: statuses(js("C", controlplane.StatusFinished))},
		},
		details: map[controlplane.JobID]*controlplane.JobMetrics{
			"C": {ID: "C", Tasks: []controlplane.TaskMetrics{{RecordsIn: 5}}},
		},
	}

	var calls []controlplane.JobStatus
	m, _ := newTestMonitor(client, Config{
		PollInterval: time.Second,
		MaxWait:      10 * time.Second,
		OnProgress: func(id controlplane.JobID, status controlplane.JobStatus, totals Totals) {
			assert.Equal(t, controlplane.JobID("C"), id)
			assert.Equal(t, int64(5), totals.RecordsIn)
			calls = append(calls, status)
		},
	})
	res := m.Run(context.Background(), "identity", okSubmitter())

	assert.Equal(t, controlplane.StatusFinished, res.Status)
	assert.Equal(t, []controlplane.JobStatus{controlplane.StatusRunning, controlplane.StatusFinished}, calls)
}
