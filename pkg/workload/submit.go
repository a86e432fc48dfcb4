package workload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/3leaps/gostratus/pkg/bench"
)

// SQLClientConfig configures the docker-exec'ed Flink SQL client used to
// submit workloads.
type SQLClientConfig struct {
	// Container is the JobManager container name (required).
	Container string

	// RestHost and RestPort point the SQL client at the cluster's REST
	// endpoint. Host is required; zero port uses the Flink default 8081.
	RestHost string
	RestPort int

	// ClientPath is the sql-client.sh path inside the container.
	// Empty uses DefaultClientPath.
	ClientPath string

	// Logger receives command diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// DefaultClientPath is the SQL client location in official Flink images.
const DefaultClientPath = "/opt/flink/bin/sql-client.sh"

// SQLClientSubmitter submits a rendered SQL script by copying it into the
// JobManager container and running the embedded SQL client on it.
//
// The SQL client blocks until the batch insert completes, so the job may
// already be terminal (or purged) before the monitor's first poll; the
// Succeeded indicator in the outcome feeds the monitor's completion
// fallback for that case.
type SQLClientSubmitter struct {
	cfg      SQLClientConfig
	workload *Workload
	params   Params

	// Injected for tests.
	runCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Ensure SQLClientSubmitter implements the interface.
var _ bench.Submitter = (*SQLClientSubmitter)(nil)

// NewSQLClientSubmitter builds a submitter for one workload invocation.
func NewSQLClientSubmitter(cfg SQLClientConfig, w *Workload, p Params) (*SQLClientSubmitter, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("sql client: container name is required")
	}
	if cfg.RestHost == "" {
		return nil, fmt.Errorf("sql client: rest host is required")
	}
	if cfg.RestPort == 0 {
		cfg.RestPort = 8081
	}
	if cfg.ClientPath == "" {
		cfg.ClientPath = DefaultClientPath
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SQLClientSubmitter{
		cfg:      cfg,
		workload: w,
		params:   p,
		runCommand: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}, nil
}

// Submit renders the workload SQL, stages it in the container and runs the
// SQL client on it.
//
// A staging or client-start failure is a submission error: no job is
// expected to appear and the caller should not poll. A nonzero client exit
// is not: the statements may have partially executed and started a job, so
// the outcome reports Succeeded=false and polling proceeds.
func (s *SQLClientSubmitter) Submit(ctx context.Context) (bench.Outcome, error) {
	log := s.cfg.Logger

	sql, err := s.workload.SQL(s.params)
	if err != nil {
		return bench.Outcome{}, fmt.Errorf("render workload sql: %w", err)
	}
	sql = s.sessionSettings() + sql

	scriptPath, cleanup, err := writeScript(s.workload.Name, sql)
	if err != nil {
		return bench.Outcome{}, err
	}
	defer cleanup()

	containerPath := "/tmp/gostratus_job.sql"
	if out, err := s.runCommand(ctx, "docker", "cp", scriptPath, s.cfg.Container+":"+containerPath); err != nil {
		return bench.Outcome{}, fmt.Errorf("stage sql script in container: %w (%s)", err, string(out))
	}

	log.Info("Submitting workload via SQL client",
		zap.String("workload", s.workload.Name),
		zap.String("container", s.cfg.Container),
		zap.Int64("records", s.params.Records))

	out, err := s.runCommand(ctx, "docker", "exec", s.cfg.Container,
		s.cfg.ClientPath, "embedded", "-f", containerPath)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The client never ran; nothing was submitted.
			return bench.Outcome{}, fmt.Errorf("run sql client: %w", err)
		}
		log.Warn("SQL client exited nonzero",
			zap.String("workload", s.workload.Name),
			zap.Int("exit_code", exitErr.ExitCode()))
		return bench.Outcome{Succeeded: false, Output: string(out)}, nil
	}

	return bench.Outcome{Succeeded: true, Output: string(out)}, nil
}

// sessionSettings points the SQL client's session at the cluster REST
// endpoint, mirroring the settings a user would pass interactively.
func (s *SQLClientSubmitter) sessionSettings() string {
	return fmt.Sprintf("SET 'rest.address' = '%s';\nSET 'rest.port' = '%d';\n", s.cfg.RestHost, s.cfg.RestPort)
}

// writeScript stages the SQL in a local temp file for docker cp.
func writeScript(name, sql string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "gostratus-"+name+"-")
	if err != nil {
		return "", nil, fmt.Errorf("create script dir: %w", err)
	}
	path := filepath.Join(dir, "job.sql")
	if err := os.WriteFile(path, []byte(sql), 0644); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, fmt.Errorf("write sql script: %w", err)
	}
	return path, func() { _ = os.RemoveAll(dir) }, nil
}
