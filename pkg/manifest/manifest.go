// Package manifest provides loading and validation of gostratus benchmark
// manifests.
//
// A benchmark manifest is a YAML or JSON file describing one benchmark
// session: the cluster connection, the workloads to run with their
// tunables, monitor timing, and output destination.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	cluster:
//	  host: 10.0.0.1
//	  port: 8081
//	  container: flink-jobmanager
//	workloads:
//	  - name: identity
//	    records: 1000000
//	    parallelism: 4
//	  - name: wordcount
//	    records: 500000
//	monitor:
//	  poll_interval: 2s
//	  max_wait: 2m
//	output:
//	  destination: stdout
package manifest

// Manifest represents a validated benchmark manifest.
type Manifest struct {
	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Cluster configures the control plane connection.
	Cluster ClusterConfig `json:"cluster" yaml:"cluster"`

	// Workloads lists the workloads to run, in order.
	Workloads []WorkloadConfig `json:"workloads" yaml:"workloads"`

	// Monitor configures poll timing (optional).
	Monitor MonitorConfig `json:"monitor,omitempty" yaml:"monitor,omitempty"`

	// Output configures the result destination (optional).
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`
}

// ClusterConfig configures the control plane connection.
type ClusterConfig struct {
	// Host is the cluster REST host (required).
	Host string `json:"host" yaml:"host"`

	// Port is the cluster REST port. Zero uses the engine default.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Container is the JobManager container name used for SQL-client
	// submission. Empty uses "flink-jobmanager".
	Container string `json:"container,omitempty" yaml:"container,omitempty"`

	// RateLimit caps REST queries per second. Zero means unlimited.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// WorkloadConfig selects one workload and its tunables.
type WorkloadConfig struct {
	// Name is the catalog workload name (required).
	Name string `json:"name" yaml:"name"`

	// Records is the number of source records. Zero uses DefaultRecords.
	Records int64 `json:"records,omitempty" yaml:"records,omitempty"`

	// Parallelism is the job parallelism. Zero uses DefaultParallelism.
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`

	// Buckets is the grouping-key cardinality for aggregation workloads.
	Buckets int `json:"buckets,omitempty" yaml:"buckets,omitempty"`

	// WindowSpan is the range width for the window workload.
	WindowSpan int64 `json:"window_span,omitempty" yaml:"window_span,omitempty"`
}

// MonitorConfig configures poll timing.
type MonitorConfig struct {
	// PollInterval is the delay between listing queries.
	PollInterval Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`

	// MaxWait bounds the wait for a terminal status.
	MaxWait Duration `json:"max_wait,omitempty" yaml:"max_wait,omitempty"`

	// Settle is the pause between cleanup and submission.
	Settle Duration `json:"settle,omitempty" yaml:"settle,omitempty"`

	// Strict disables the completion fallback: runs that time out report
	// unknown status instead of trusting the submitter's exit indicator.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// OutputConfig configures the result destination.
type OutputConfig struct {
	// Destination is "stdout" or a file path. Empty means stdout.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// Workload defaults applied by ApplyDefaults.
const (
	DefaultRecords     = 100000
	DefaultParallelism = 1
	DefaultContainer   = "flink-jobmanager"
)

// ApplyDefaults fills in defaults for optional fields.
func (m *Manifest) ApplyDefaults() {
	if m.Cluster.Container == "" {
		m.Cluster.Container = DefaultContainer
	}
	for i := range m.Workloads {
		if m.Workloads[i].Records <= 0 {
			m.Workloads[i].Records = DefaultRecords
		}
		if m.Workloads[i].Parallelism <= 0 {
			m.Workloads[i].Parallelism = DefaultParallelism
		}
	}
	if m.Output.Destination == "" {
		m.Output.Destination = "stdout"
	}
}
