package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gostratus/internal/config"
	"github.com/3leaps/gostratus/internal/observability"
	"github.com/3leaps/gostratus/pkg/bench"
	"github.com/3leaps/gostratus/pkg/controlplane"
	"github.com/3leaps/gostratus/pkg/controlplane/flink"
	"github.com/3leaps/gostratus/pkg/manifest"
	"github.com/3leaps/gostratus/pkg/output"
	"github.com/3leaps/gostratus/pkg/workload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run benchmark workloads against a cluster",
	Long: `Run one or more benchmark workloads as defined in a YAML or JSON
manifest, or ad hoc via flags.

Each workload run cancels stale jobs first, so repeated invocations never
collide with leftovers from a previous (possibly crashed) run.

Example:
  gostratus run --job bench.yaml
  gostratus run --workload identity --records 1000000 --parallelism 4
  gostratus run --workload wordcount --host 10.0.0.1 --output results.jsonl
  gostratus run --job bench.yaml --strict`,
	RunE: runRun,
}

var (
	runJobPath     string
	runWorkload    string
	runRecords     int64
	runParallelism int
	runHost        string
	runPort        int
	runContainer   string
	runStrict      bool
	runOutput      string
	runQuiet       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runJobPath, "job", "j", "", "Path to benchmark manifest")
	runCmd.Flags().StringVarP(&runWorkload, "workload", "w", "", "Workload to run ad hoc (alternative to --job)")
	runCmd.Flags().Int64Var(&runRecords, "records", 0, "Number of records to process")
	runCmd.Flags().IntVarP(&runParallelism, "parallelism", "p", 0, "Job parallelism")
	runCmd.Flags().StringVar(&runHost, "host", "", "Cluster REST host (default from config)")
	runCmd.Flags().IntVar(&runPort, "port", 0, "Cluster REST port (default from config)")
	runCmd.Flags().StringVar(&runContainer, "container", "", "JobManager container name for SQL submission")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Never trust the submitter's exit code; report unknown on timeout")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Override output destination (stdout or file path)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress progress records")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	m, err := resolveRunManifest(cfg)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	observability.CLILogger.Debug("Resolved benchmark manifest",
		zap.String("host", m.Cluster.Host),
		zap.Int("port", m.Cluster.Port),
		zap.Int("workloads", len(m.Workloads)))

	client, err := flink.New(flink.Config{
		Host:      m.Cluster.Host,
		Port:      m.Cluster.Port,
		RateLimit: m.Cluster.RateLimit,
	})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid cluster configuration", err)
	}

	writer, cleanup, err := openWriter(m.Output.Destination)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	return executeBenchmarks(ctx, client, m, writer)
}

// resolveRunManifest builds the session manifest from --job, or from flags
// plus tool config for ad hoc runs. Flags override manifest fields either way.
func resolveRunManifest(cfg *config.Config) (*manifest.Manifest, error) {
	var m *manifest.Manifest

	if runJobPath != "" {
		loaded, err := manifest.Load(runJobPath)
		if err != nil {
			return nil, err
		}
		m = loaded
	} else {
		if runWorkload == "" {
			return nil, fmt.Errorf("either --job or --workload is required")
		}
		m = &manifest.Manifest{
			Version: "1.0",
			Cluster: manifest.ClusterConfig{
				Host:      cfg.Cluster.Host,
				Port:      cfg.Cluster.Port,
				Container: cfg.Cluster.Container,
				RateLimit: cfg.Cluster.RateLimit,
			},
			Workloads: []manifest.WorkloadConfig{{Name: runWorkload}},
			Monitor: manifest.MonitorConfig{
				PollInterval: manifest.Duration(cfg.Monitor.PollInterval),
				MaxWait:      manifest.Duration(cfg.Monitor.MaxWait),
				Settle:       manifest.Duration(cfg.Monitor.Settle),
				Strict:       cfg.Monitor.Strict,
			},
		}
	}

	if runHost != "" {
		m.Cluster.Host = runHost
	}
	if runPort != 0 {
		m.Cluster.Port = runPort
	}
	if runContainer != "" {
		m.Cluster.Container = runContainer
	}
	if runStrict {
		m.Monitor.Strict = true
	}
	if runOutput != "" {
		m.Output.Destination = runOutput
	}
	for i := range m.Workloads {
		if runRecords > 0 {
			m.Workloads[i].Records = runRecords
		}
		if runParallelism > 0 {
			m.Workloads[i].Parallelism = runParallelism
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ApplyDefaults()
	return m, nil
}

// executeBenchmarks runs every workload in the manifest sequentially.
// Workload runs against one control plane must not overlap: cleanup and
// identity resolution operate on the cluster-wide job namespace.
func executeBenchmarks(ctx context.Context, client controlplane.Client, m *manifest.Manifest, writer output.Writer) error {
	log := observability.CLILogger
	sessionStart := time.Now()

	var finished, unverified, failed int
	for _, wc := range m.Workloads {
		res, err := executeWorkload(ctx, client, m, wc, writer)
		if err != nil {
			return err
		}

		switch {
		case res.Status == controlplane.StatusFinished && !res.Unverified:
			finished++
		case res.Status == controlplane.StatusFinished:
			finished++
			unverified++
		case res.Status == controlplane.StatusUnknown:
			unverified++
		default:
			failed++
		}
	}

	_ = writer.WriteSummary(ctx, &output.SummaryRecord{
		Workloads:  len(m.Workloads),
		Finished:   finished,
		Unverified: unverified,
		Duration:   time.Since(sessionStart),
	})

	if err := ctx.Err(); err != nil {
		return exitError(foundry.ExitSignalInt, "Benchmark session cancelled", err)
	}
	if failed > 0 {
		return exitError(foundry.ExitExternalServiceUnavailable, "Benchmark session completed with failures",
			fmt.Errorf("failed_workloads=%d", failed))
	}

	log.Info("Benchmark session complete",
		zap.Int("workloads", len(m.Workloads)),
		zap.Int("finished", finished),
		zap.Int("unverified", unverified))
	return nil
}

func executeWorkload(ctx context.Context, client controlplane.Client, m *manifest.Manifest, wc manifest.WorkloadConfig, writer output.Writer) (*bench.Result, error) {
	log := observability.CLILogger

	w, err := workload.Lookup(wc.Name)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Unknown workload", err)
	}

	params := workload.Params{
		Records:     wc.Records,
		Parallelism: wc.Parallelism,
		Buckets:     wc.Buckets,
		WindowSpan:  wc.WindowSpan,
	}

	submitter, err := workload.NewSQLClientSubmitter(workload.SQLClientConfig{
		Container: m.Cluster.Container,
		RestHost:  m.Cluster.Host,
		RestPort:  m.Cluster.Port,
		Logger:    log,
	}, w, params)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid submission configuration", err)
	}

	var progress bench.Progress
	if !runQuiet {
		progress = func(id controlplane.JobID, status controlplane.JobStatus, totals bench.Totals) {
			_ = writer.WriteProgress(ctx, &output.ProgressRecord{
				Workload:  wc.Name,
				JobID:     string(id),
				Status:    status.String(),
				RecordsIn: totals.RecordsIn,
			})
		}
	}

	runner := bench.NewRunner(client, bench.RunnerConfig{
		Monitor: bench.Config{
			PollInterval:     m.Monitor.PollInterval.Std(),
			MaxWait:          m.Monitor.MaxWait.Std(),
			StrictCompletion: m.Monitor.Strict,
			OnProgress:       progress,
			Logger:           log,
		},
		Settle: m.Monitor.Settle.Std(),
		Logger: log,
	})

	log.Info("Starting benchmark workload",
		zap.String("workload", wc.Name),
		zap.Int64("records", wc.Records),
		zap.Int("parallelism", wc.Parallelism))

	res := runner.Run(ctx, wc.Name, submitter, bench.Params{InputRecords: wc.Records})

	if err := writer.WriteResult(ctx, res); err != nil {
		return nil, exitError(foundry.ExitFileWriteError, "Failed to write result", err)
	}
	if res.Status == controlplane.StatusFailed {
		_ = writer.WriteError(ctx, &output.ErrorRecord{
			Code:     "workload_failed",
			Message:  fmt.Sprintf("workload %s ended with status %s", wc.Name, res.Status),
			Workload: wc.Name,
		})
	}

	return res, nil
}

// openWriter resolves the output destination into a JSONL writer.
func openWriter(destination string) (output.Writer, func(), error) {
	runID := uuid.New().String()

	if destination == "" || destination == "stdout" {
		w := output.NewJSONLWriter(os.Stdout, runID)
		return w, func() { _ = w.Close() }, nil
	}

	f, err := os.Create(destination)
	if err != nil {
		return nil, nil, err
	}

	w := output.NewJSONLWriter(f, runID)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}
