package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/gostratus/internal/config"
	"github.com/3leaps/gostratus/pkg/controlplane/flink"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs visible on the cluster",
	Long: `List the jobs currently visible on the cluster control plane,
in the order the control plane reports them.

Example:
  gostratus jobs
  gostratus jobs --host 10.0.0.1 --port 8081`,
	RunE: runJobs,
}

var (
	jobsHost string
	jobsPort int
)

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringVar(&jobsHost, "host", "", "Cluster REST host (default from config)")
	jobsCmd.Flags().IntVar(&jobsPort, "port", 0, "Cluster REST port (default from config)")
}

func runJobs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	host, port := cfg.Cluster.Host, cfg.Cluster.Port
	if jobsHost != "" {
		host = jobsHost
	}
	if jobsPort != 0 {
		port = jobsPort
	}

	client, err := flink.New(flink.Config{Host: host, Port: port})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid cluster configuration", err)
	}

	snap, err := client.ListJobs(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to list jobs", err)
	}

	if len(snap.Jobs) == 0 {
		fmt.Println("No jobs visible.")
		return nil
	}
	for _, j := range snap.Jobs {
		fmt.Printf("%s  %s\n", j.ID, j.Status)
	}
	return nil
}
