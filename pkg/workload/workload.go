// Package workload defines the built-in benchmark workloads and renders
// them as Flink SQL statements over the engine's datagen source and
// blackhole sink, so no external data dependencies are needed.
package workload

import (
	"errors"
	"fmt"
	"sort"
)

// Known workload names.
const (
	Identity  = "identity"
	WordCount = "wordcount"
	Window    = "window"
)

// ErrUnknownWorkload indicates the requested workload name is not in the catalog.
var ErrUnknownWorkload = errors.New("unknown workload")

// Params are the tunables applied to a workload.
type Params struct {
	// Records is the number of source records to generate.
	Records int64

	// Parallelism is the job's default parallelism.
	Parallelism int

	// Buckets is the grouping-key cardinality for aggregation workloads.
	// Zero uses the workload default.
	Buckets int

	// WindowSpan is the range width for the window workload's bucketed
	// aggregation. Zero uses the workload default.
	WindowSpan int64
}

// Defaults for aggregation workloads.
const (
	DefaultWordBuckets   = 1000
	DefaultWindowBuckets = 100
	DefaultWindowSpan    = 10000
)

// Workload is one entry in the benchmark catalog.
type Workload struct {
	// Name identifies the workload (e.g. "wordcount").
	Name string

	// Description is a one-line summary for CLI listings.
	Description string

	// render produces the full SQL script for the given params.
	render func(Params) (string, error)
}

// SQL renders the workload's SQL script with the given params applied.
func (w *Workload) SQL(p Params) (string, error) {
	if p.Records <= 0 {
		return "", fmt.Errorf("workload %s: records must be > 0", w.Name)
	}
	if p.Parallelism <= 0 {
		p.Parallelism = 1
	}
	return w.render(p)
}

var catalog = map[string]*Workload{
	Identity: {
		Name:        Identity,
		Description: "Pass-through (baseline throughput)",
		render:      renderIdentity,
	},
	WordCount: {
		Name:        WordCount,
		Description: "Stateful word counting (GROUP BY)",
		render:      renderWordCount,
	},
	Window: {
		Name:        Window,
		Description: "Range-based aggregation (GROUP BY with SUM)",
		render:      renderWindow,
	},
}

// Lookup returns the named workload from the catalog.
func Lookup(name string) (*Workload, error) {
	w, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkload, name)
	}
	return w, nil
}

// Names returns all catalog workload names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
