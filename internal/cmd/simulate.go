package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gostratus/internal/config"
	"github.com/3leaps/gostratus/internal/observability"
	"github.com/3leaps/gostratus/internal/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a local control-plane emulator",
	Long: `Serve an in-memory control plane speaking the listing/detail/cancel
REST triad, for exercising the benchmark workflow without a cluster.

Jobs are created via POST /jobs and advance pending -> running -> finished
on a fixed schedule.

Example:
  gostratus simulate
  gostratus simulate --port 9081 --job-runtime 30s`,
	RunE: runSimulate,
}

var (
	simulateHost       string
	simulatePort       int
	simulateJobRuntime time.Duration
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateHost, "host", "", "Bind address (default from config)")
	simulateCmd.Flags().IntVar(&simulatePort, "port", 0, "Bind port (default from config)")
	simulateCmd.Flags().DurationVar(&simulateJobRuntime, "job-runtime", 0, "How long simulated jobs run before finishing")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := observability.CLILogger

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	host, port := cfg.Simulator.Host, cfg.Simulator.Port
	if simulateHost != "" {
		host = simulateHost
	}
	if simulatePort != 0 {
		port = simulatePort
	}
	runtime := cfg.Simulator.JobRuntime
	if simulateJobRuntime > 0 {
		runtime = simulateJobRuntime
	}

	sim := simulator.New(simulator.Options{
		RunFor: runtime,
		Logger: log,
	})

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      sim.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info("Control-plane simulator listening",
		zap.String("addr", addr),
		zap.Duration("job_runtime", runtime))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return exitError(foundry.ExitExternalServiceUnavailable, "Simulator server failed", err)
	}
	return nil
}
