package bench

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

// DefaultSettle is the pause between cleanup and resubmission. The control
// plane needs a moment to release slots after cancellations; the value is
// empirical, not derived.
const DefaultSettle = 2 * time.Second

// RunnerConfig tunes the idempotent runner.
type RunnerConfig struct {
	// Monitor configures the poll loop delegated to.
	Monitor Config

	// Settle is the pause after cleanup before submitting.
	// Default: DefaultSettle.
	Settle time.Duration

	// Logger receives cleanup and summary diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Runner wraps the monitor with pre-run cleanup so repeated invocations
// never accumulate cluster state, even when a prior run crashed before
// observing its result.
//
// Runs against a given control plane must be serialized by the caller:
// listing and cancellation operate on the cluster-wide job namespace, so a
// concurrent run's cleanup could cancel this run's in-flight job.
type Runner struct {
	client  controlplane.Client
	monitor *Monitor
	cfg     RunnerConfig

	// Injected for tests.
	sleep func(time.Duration)
}

// NewRunner creates a runner over the given control plane.
func NewRunner(client controlplane.Client, cfg RunnerConfig) *Runner {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{
		client:  client,
		monitor: NewMonitor(client, cfg.Monitor),
		cfg:     cfg,
		sleep:   time.Sleep,
	}
}

// Params carries the caller-supplied workload tunables the runner needs
// for reporting.
type Params struct {
	// InputRecords is the configured input size. It substitutes for the
	// control plane's record count when that reports zero, which is the
	// case for pass-through and aggregation jobs whose output count is
	// not representative of throughput.
	InputRecords int64
}

// Run cancels stale jobs, waits for the cluster to settle, then delegates
// to the monitor with a fresh baseline and computes throughput.
//
// Run always returns a Result; it never propagates an error to the caller.
func (r *Runner) Run(ctx context.Context, workload string, sub Submitter, params Params) *Result {
	r.cleanup(ctx)
	r.sleep(r.cfg.Settle)

	result := r.monitor.Run(ctx, workload, sub)
	result.RunID = uuid.New().String()

	if result.Status == controlplane.StatusFinished {
		var jobDuration time.Duration
		records := params.InputRecords
		if result.Metrics != nil {
			jobDuration = result.Metrics.Duration
			if result.Metrics.Totals.RecordsIn > 0 {
				records = result.Metrics.Totals.RecordsIn
			}
		}
		result.RecordsProcessed = records
		result.Throughput = throughput(records, jobDuration, result.Elapsed)
	}

	r.cfg.Logger.Info("Benchmark run complete",
		zap.String("run_id", result.RunID),
		zap.String("workload", workload),
		zap.String("status", result.Status.String()),
		zap.Duration("elapsed", result.Elapsed),
		zap.Bool("unverified", result.Unverified))

	return result
}

// cleanup cancels every currently running job. Each cancellation is
// independent: one failure never aborts the others, and cleanup failures
// never block submission.
func (r *Runner) cleanup(ctx context.Context) {
	log := r.cfg.Logger

	snap, err := r.client.ListJobs(ctx)
	if err != nil {
		log.Warn("Cleanup listing failed, proceeding without cancellation", zap.Error(err))
		return
	}

	for _, id := range snap.Running() {
		if err := r.client.CancelJob(ctx, id); err != nil {
			log.Warn("Failed to cancel stale job",
				zap.String("job_id", string(id)),
				zap.Error(err))
			continue
		}
		log.Info("Canceled stale job", zap.String("job_id", string(id)))
	}
}
