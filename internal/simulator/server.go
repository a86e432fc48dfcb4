// Package simulator provides an in-memory control-plane emulator speaking
// the JobManager REST triad (list, detail, cancel).
//
// It exists so the benchmark workflow can be exercised without a cluster:
// `gostratus simulate` serves it on localhost, and the client tests use it
// as their httptest backend. Jobs advance pending -> running -> finished on
// a configured schedule, with metrics that grow proportionally to runtime.
package simulator

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options configures simulated job behavior.
type Options struct {
	// PendingFor is how long a new job reports a pre-running status.
	PendingFor time.Duration

	// RunFor is how long a job runs before finishing.
	RunFor time.Duration

	// Records is the record count a finished job reports having read.
	Records int64

	// BytesPerRecord sizes the byte counters.
	BytesPerRecord int64

	// Vertices is how many tasks each job fans out to.
	Vertices int

	// FailListings makes the next N GET /jobs calls return 503, for
	// exercising transient-error handling.
	FailListings int

	// Logger receives request diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Server is the in-memory control plane.
type Server struct {
	mu       sync.Mutex
	jobs     []*job // creation order, mirrors JobManager listing order
	opts     Options
	failLeft int

	// Injected for tests.
	now func() time.Time
}

type job struct {
	id       string
	name     string
	created  time.Time
	canceled bool
	failed   bool
}

// New creates a simulator with the given options.
func New(opts Options) *Server {
	if opts.PendingFor <= 0 {
		opts.PendingFor = time.Second
	}
	if opts.RunFor <= 0 {
		opts.RunFor = 10 * time.Second
	}
	if opts.Records <= 0 {
		opts.Records = 100000
	}
	if opts.BytesPerRecord <= 0 {
		opts.BytesPerRecord = 100
	}
	if opts.Vertices <= 0 {
		opts.Vertices = 2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		opts:     opts,
		failLeft: opts.FailListings,
		now:      time.Now,
	}
}

// StartJob registers a new job and returns its ID.
func (s *Server) StartJob(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	j := &job{
		id:      newJobID(),
		name:    name,
		created: s.now(),
	}
	s.jobs = append(s.jobs, j)
	s.opts.Logger.Info("Simulated job started",
		zap.String("job_id", j.id),
		zap.String("name", name))
	return j.id
}

// FailJob marks a job as failed if it has not yet finished.
func (s *Server) FailJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.id == id {
			j.failed = true
			return
		}
	}
}

// status derives the job's current status from its schedule.
func (s *Server) status(j *job) string {
	switch {
	case j.canceled:
		return "CANCELED"
	case j.failed:
		return "FAILED"
	}
	age := s.now().Sub(j.created)
	switch {
	case age < s.opts.PendingFor:
		return "CREATED"
	case age < s.opts.PendingFor+s.opts.RunFor:
		return "RUNNING"
	default:
		return "FINISHED"
	}
}

// progress is the fraction of the job's runtime that has elapsed.
func (s *Server) progress(j *job) float64 {
	if j.canceled || j.failed {
		return 0
	}
	age := s.now().Sub(j.created) - s.opts.PendingFor
	if age <= 0 {
		return 0
	}
	if age >= s.opts.RunFor {
		return 1
	}
	return float64(age) / float64(s.opts.RunFor)
}

// Handler returns the REST router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/jobs", s.handleListJobs)
	r.Post("/jobs", s.handleCreateJob)
	r.Get("/jobs/{jobID}", s.handleJobDetail)
	r.Patch("/jobs/{jobID}/cancel", s.handleCancelJob)

	return r
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLeft > 0 {
		s.failLeft--
		http.Error(w, `{"errors":["service unavailable"]}`, http.StatusServiceUnavailable)
		return
	}

	type entry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp := struct {
		Jobs []entry `json:"jobs"`
	}{Jobs: []entry{}}

	for _, j := range s.jobs {
		resp.Jobs = append(resp.Jobs, entry{ID: j.id, Status: s.status(j)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Name == "" {
		req.Name = "simulated-job"
	}

	id := s.StartJob(req.Name)
	writeJSON(w, http.StatusCreated, map[string]string{"jobid": id})
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.find(jobID)
	if j == nil {
		http.Error(w, `{"errors":["job not found"]}`, http.StatusNotFound)
		return
	}

	// Split the job's counters evenly across vertices at the current
	// progress, like a balanced parallel scan would report.
	done := int64(float64(s.opts.Records) * s.progress(j))
	perVertex := done / int64(s.opts.Vertices)

	type vertexMetrics struct {
		ReadRecords  int64 `json:"read-records"`
		WriteRecords int64 `json:"write-records"`
		ReadBytes    int64 `json:"read-bytes"`
		WriteBytes   int64 `json:"write-bytes"`
	}
	type vertex struct {
		Metrics vertexMetrics `json:"metrics"`
	}

	var duration int64
	if s.status(j) == "FINISHED" {
		duration = s.opts.RunFor.Milliseconds()
	} else {
		elapsed := s.now().Sub(j.created) - s.opts.PendingFor
		if elapsed > 0 {
			duration = elapsed.Milliseconds()
		}
	}

	resp := struct {
		Name     string   `json:"name"`
		Duration int64    `json:"duration"`
		Vertices []vertex `json:"vertices"`
	}{
		Name:     j.name,
		Duration: duration,
	}
	for i := 0; i < s.opts.Vertices; i++ {
		resp.Vertices = append(resp.Vertices, vertex{Metrics: vertexMetrics{
			ReadRecords:  perVertex,
			WriteRecords: perVertex,
			ReadBytes:    perVertex * s.opts.BytesPerRecord,
			WriteBytes:   perVertex * s.opts.BytesPerRecord,
		}})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	s.mu.Lock()
	defer s.mu.Unlock()

	j := s.find(jobID)
	if j == nil {
		http.Error(w, `{"errors":["job not found"]}`, http.StatusNotFound)
		return
	}

	if status := s.status(j); status == "CREATED" || status == "RUNNING" {
		j.canceled = true
		s.opts.Logger.Info("Simulated job canceled", zap.String("job_id", j.id))
	}
	// Canceling an already-terminal job is accepted silently, matching
	// JobManager behavior.
	writeJSON(w, http.StatusAccepted, struct{}{})
}

// find returns the job with the given ID. Caller holds the lock.
func (s *Server) find(id string) *job {
	for _, j := range s.jobs {
		if j.id == id {
			return j
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newJobID fabricates a 32-hex-char ID in the JobManager format.
func newJobID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
