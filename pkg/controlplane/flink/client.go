package flink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/3leaps/gostratus/pkg/controlplane"
)

// Client implements controlplane.Client over the JobManager REST API.
//
// The API surface used is the listing/detail/cancel triad:
//
//	GET   /jobs            -> {"jobs": [{"id", "status"}]}
//	GET   /jobs/{id}       -> {"name", "duration", "vertices": [{"metrics": {...}}]}
//	PATCH /jobs/{id}/cancel
type Client struct {
	baseURL string
	http    *http.Client

	// Rate limiter (nil if unlimited)
	limiter *rate.Limiter
}

// Ensure Client implements the interface.
var _ controlplane.Client = (*Client)(nil)

// New creates a Flink REST client with the given configuration.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, port),
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}, nil
}

// jobsResponse is the GET /jobs payload.
type jobsResponse struct {
	Jobs []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"jobs"`
}

// jobDetailResponse is the GET /jobs/{id} payload, reduced to the fields
// the benchmark consumes.
type jobDetailResponse struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"` // milliseconds
	Vertices []struct {
		Metrics struct {
			ReadRecords  int64 `json:"read-records"`
			WriteRecords int64 `json:"write-records"`
			ReadBytes    int64 `json:"read-bytes"`
			WriteBytes   int64 `json:"write-bytes"`
		} `json:"metrics"`
	} `json:"vertices"`
}

// ListJobs returns a snapshot of the currently visible jobs, preserving
// the listing order returned by the JobManager.
func (c *Client) ListJobs(ctx context.Context) (*controlplane.JobSnapshot, error) {
	var resp jobsResponse
	if err := c.getJSON(ctx, "/jobs", &resp); err != nil {
		return nil, &controlplane.ClientError{Op: "ListJobs", Endpoint: c.baseURL + "/jobs", Err: err}
	}

	snap := &controlplane.JobSnapshot{Jobs: make([]controlplane.JobSummary, 0, len(resp.Jobs))}
	for _, j := range resp.Jobs {
		snap.Jobs = append(snap.Jobs, controlplane.JobSummary{
			ID:     controlplane.JobID(j.ID),
			Status: mapStatus(j.Status),
		})
	}
	return snap, nil
}

// JobDetail returns metrics for a single job, one TaskMetrics per vertex.
func (c *Client) JobDetail(ctx context.Context, id controlplane.JobID) (*controlplane.JobMetrics, error) {
	path := "/jobs/" + string(id)

	var resp jobDetailResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, &controlplane.ClientError{Op: "JobDetail", Endpoint: c.baseURL + path, Err: err}
	}

	metrics := &controlplane.JobMetrics{
		ID:       id,
		Name:     resp.Name,
		Duration: time.Duration(resp.Duration) * time.Millisecond,
		Tasks:    make([]controlplane.TaskMetrics, 0, len(resp.Vertices)),
	}
	for _, v := range resp.Vertices {
		metrics.Tasks = append(metrics.Tasks, controlplane.TaskMetrics{
			RecordsIn:  v.Metrics.ReadRecords,
			RecordsOut: v.Metrics.WriteRecords,
			BytesIn:    v.Metrics.ReadBytes,
			BytesOut:   v.Metrics.WriteBytes,
		})
	}
	return metrics, nil
}

// CancelJob requests cancellation via PATCH /jobs/{id}/cancel.
func (c *Client) CancelJob(ctx context.Context, id controlplane.JobID) error {
	path := "/jobs/" + string(id) + "/cancel"

	if err := c.wait(ctx); err != nil {
		return &controlplane.ClientError{Op: "CancelJob", Endpoint: c.baseURL + path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, nil)
	if err != nil {
		return &controlplane.ClientError{Op: "CancelJob", Endpoint: c.baseURL + path, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &controlplane.ClientError{
			Op:       "CancelJob",
			Endpoint: c.baseURL + path,
			Err:      fmt.Errorf("%w: %v", controlplane.ErrTransient, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if err := classifyStatus(resp.StatusCode); err != nil {
		return &controlplane.ClientError{Op: "CancelJob", Endpoint: c.baseURL + path, Err: err}
	}
	return nil
}

// getJSON performs a rate-limited GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection refused, DNS failure, client timeout: all recoverable
		// by retrying on the next poll tick.
		return fmt.Errorf("%w: %v", controlplane.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wait blocks on the rate limiter, if one is configured.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// classifyStatus maps HTTP status codes to the controlplane error taxonomy.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return controlplane.ErrNotFound
	case code >= 500:
		return fmt.Errorf("%w: server returned %d", controlplane.ErrTransient, code)
	default:
		return fmt.Errorf("unexpected status %d", code)
	}
}

// mapStatus translates Flink job status strings to the local enum.
//
// Flink reports transitional states (CANCELLING, FAILING, RESTARTING,
// RECONCILING) while the job still occupies the cluster; those map to
// running so cleanup still targets them.
func mapStatus(s string) controlplane.JobStatus {
	switch strings.ToUpper(s) {
	case "CREATED", "INITIALIZING", "SUSPENDED":
		return controlplane.StatusPending
	case "RUNNING", "CANCELLING", "FAILING", "RESTARTING", "RECONCILING":
		return controlplane.StatusRunning
	case "FINISHED":
		return controlplane.StatusFinished
	case "FAILED":
		return controlplane.StatusFailed
	case "CANCELED":
		return controlplane.StatusCanceled
	default:
		return controlplane.StatusPending
	}
}
