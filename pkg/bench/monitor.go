// Package bench implements the benchmark run lifecycle against a batch
// cluster control plane: identifying the job a submission created, polling
// it to a terminal state, aggregating its metrics, and keeping repeated
// runs from colliding with stale jobs.
//
// The control plane only exposes a listing/detail/cancel query surface; no
// durable job handle is returned at submission time. The monitor therefore
// captures a baseline of visible job IDs before submitting and identifies
// the new job by set difference on subsequent polls.
package bench

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

// Submitter triggers job submission against the control plane.
//
// It is an opaque, possibly-blocking call supplied by the workload layer,
// e.g. running a script through a command-line client. Some front-ends
// block until the job has already completed.
type Submitter interface {
	// Submit starts the job. A returned error means submission itself
	// failed and no job is expected to appear; no polling is attempted.
	// Outcome.Succeeded reports whether the front-end signaled successful
	// completion (e.g. a zero exit code), which feeds the completion
	// fallback for jobs purged before the first poll.
	Submit(ctx context.Context) (Outcome, error)
}

// Outcome is the submission front-end's own report.
type Outcome struct {
	// Succeeded is the front-end's success indicator.
	Succeeded bool

	// Output is captured front-end output. It is logged, never parsed.
	Output string
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context) (Outcome, error)

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context) (Outcome, error) {
	return f(ctx)
}

// Progress is invoked once per poll tick after the job has been identified,
// with the latest known status and aggregate counters.
type Progress func(id controlplane.JobID, status controlplane.JobStatus, totals Totals)

// Default monitor timing, matching the cluster front-ends in scope: jobs
// register within a few seconds and batch workloads finish well inside
// two minutes.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 120 * time.Second
)

// Config tunes the monitor loop.
type Config struct {
	// PollInterval is the fixed delay between listing queries.
	// Default: DefaultPollInterval.
	PollInterval time.Duration

	// MaxWait bounds the whole wait. When it elapses without a terminal
	// status the run ends with StatusUnknown. Default: DefaultMaxWait.
	MaxWait time.Duration

	// StrictCompletion disables the fallback that trusts the submission
	// front-end's success indicator when no terminal status was observed.
	// Strict runs report StatusUnknown on timeout instead.
	StrictCompletion bool

	// OnProgress, if set, is called each tick once a job is identified.
	OnProgress Progress

	// Logger receives tick-level diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Monitor drives one submission through the poll loop.
//
// Monitor is safe for sequential reuse; each Run is independent. Runs
// against the same control plane must not execute concurrently because
// identity resolution operates on the cluster-wide job namespace.
type Monitor struct {
	client controlplane.Client
	cfg    Config

	// Injected for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewMonitor creates a monitor over the given control plane.
func NewMonitor(client controlplane.Client, cfg Config) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Monitor{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run captures a baseline, invokes the submission, and polls until the new
// job reaches a terminal state or MaxWait elapses.
//
// Run always produces a Result; failures are folded into its Status rather
// than returned. A submission error yields StatusFailed with no polling.
func (m *Monitor) Run(ctx context.Context, workload string, sub Submitter) *Result {
	log := m.cfg.Logger

	baseline := m.captureBaseline(ctx)

	start := m.now()
	outcome, err := sub.Submit(ctx)
	if err != nil {
		log.Error("Submission failed",
			zap.String("workload", workload),
			zap.Error(err))
		return &Result{
			Workload: workload,
			Status:   controlplane.StatusFailed,
			Elapsed:  m.now().Sub(start),
		}
	}

	var (
		jobID   controlplane.JobID
		status  = controlplane.StatusUnknown
		metrics *JobReport
	)

	ticks := int(m.cfg.MaxWait / m.cfg.PollInterval)
	for tick := 0; tick < ticks; tick++ {
		m.sleep(m.cfg.PollInterval)
		if ctx.Err() != nil {
			log.Warn("Monitor context canceled", zap.String("workload", workload))
			break
		}

		snap, err := m.client.ListJobs(ctx)
		if err != nil {
			// No information this round; the tick still counts against
			// the timeout budget.
			log.Warn("Listing query failed, skipping tick",
				zap.Int("tick", tick),
				zap.Error(err))
			continue
		}

		if jobID == "" {
			id, found := ResolveNewJob(baseline, snap)
			if !found {
				// The front-end may not have registered its job yet.
				log.Debug("No new job visible yet", zap.Int("tick", tick))
				continue
			}
			jobID = id
			log.Info("Identified submitted job",
				zap.String("workload", workload),
				zap.String("job_id", string(jobID)))
		}

		if detail, err := m.client.JobDetail(ctx, jobID); err != nil {
			// Non-fatal: keep the previous aggregate. NotFound means the
			// job was purged between listing and detail query.
			log.Debug("Detail query failed, keeping prior metrics",
				zap.String("job_id", string(jobID)),
				zap.Error(err))
		} else {
			metrics = &JobReport{
				Name:     detail.Name,
				Duration: detail.Duration,
				Totals:   AggregateTasks(detail.Tasks),
			}
		}

		observed, present := snap.StatusOf(jobID)
		if present {
			if m.cfg.OnProgress != nil {
				var totals Totals
				if metrics != nil {
					totals = metrics.Totals
				}
				m.cfg.OnProgress(jobID, observed, totals)
			}
			if observed.IsTerminal() {
				status = observed
				break
			}
		}
	}

	elapsed := m.now().Sub(start)

	unverified := false
	if status == controlplane.StatusUnknown {
		unverified = true
		if outcome.Succeeded && !m.cfg.StrictCompletion {
			// Some front-ends block until the job has completed and been
			// purged from the listing before the first poll runs. Trust
			// their success indicator, but flag the result as unverified.
			log.Info("No terminal status observed; trusting front-end success indicator",
				zap.String("workload", workload))
			status = controlplane.StatusFinished
			metrics = nil
		}
	}

	return &Result{
		Workload:   workload,
		JobID:      jobID,
		Status:     status,
		Elapsed:    elapsed,
		Metrics:    metrics,
		Unverified: unverified,
	}
}

// captureBaseline snapshots the currently visible job IDs. A listing
// failure degrades to an empty baseline: the next new job then resolves
// against whatever the first successful poll returns.
func (m *Monitor) captureBaseline(ctx context.Context) map[controlplane.JobID]struct{} {
	snap, err := m.client.ListJobs(ctx)
	if err != nil {
		m.cfg.Logger.Warn("Baseline capture failed, starting with empty baseline", zap.Error(err))
		return map[controlplane.JobID]struct{}{}
	}
	return snap.IDs()
}
