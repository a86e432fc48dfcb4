package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/gostratus/internal/config"
	"github.com/3leaps/gostratus/internal/observability"
	"github.com/3leaps/gostratus/pkg/controlplane/flink"
)

var cancelCmd = &cobra.Command{
	Use:     "cancel",
	Aliases: []string{"cleanup"},
	Short:   "Cancel all running jobs on the cluster",
	Long: `Cancel every job the control plane lists as running.

This is the same cleanup that precedes each benchmark run; running it
standalone clears jobs left behind by a crashed session. Cancellations are
independent: one failure does not stop the rest.

Example:
  gostratus cancel
  gostratus cancel --host 10.0.0.1`,
	RunE: runCancel,
}

var (
	cancelHost string
	cancelPort int
)

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().StringVar(&cancelHost, "host", "", "Cluster REST host (default from config)")
	cancelCmd.Flags().IntVar(&cancelPort, "port", 0, "Cluster REST port (default from config)")
}

func runCancel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := observability.CLILogger

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	host, port := cfg.Cluster.Host, cfg.Cluster.Port
	if cancelHost != "" {
		host = cancelHost
	}
	if cancelPort != 0 {
		port = cancelPort
	}

	client, err := flink.New(flink.Config{Host: host, Port: port})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid cluster configuration", err)
	}

	snap, err := client.ListJobs(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to list jobs", err)
	}

	running := snap.Running()
	if len(running) == 0 {
		log.Info("No running jobs to cancel")
		return nil
	}

	canceled := 0
	for _, id := range running {
		if err := client.CancelJob(ctx, id); err != nil {
			log.Warn("Failed to cancel job",
				zap.String("job_id", string(id)),
				zap.Error(err))
			continue
		}
		log.Info("Canceled job", zap.String("job_id", string(id)))
		canceled++
	}

	log.Info("Cleanup complete",
		zap.Int("running", len(running)),
		zap.Int("canceled", canceled))
	return nil
}
