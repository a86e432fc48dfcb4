// Package cmd implements the gostratus command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/3leaps/gostratus/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "gostratus",
	Short: "Benchmark runner for batch-processing clusters",
	Long: `gostratus automates benchmark runs against batch-processing clusters.

It submits a workload to the cluster, identifies the job the submission
created, polls it to a terminal state, and reports aggregated throughput
metrics as JSONL records.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := observability.SetLevel(rootLogLevel); err != nil {
			return err
		}
		return nil
	},
}

var rootLogLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
}

// versionInfo holds build-time version metadata.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build-time version metadata. Called from main
// with values injected via -ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// Execute runs the command tree and exits nonzero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
