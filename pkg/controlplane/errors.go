package controlplane

import (
	"errors"
	"fmt"
)

// Sentinel errors for control-plane operations.
var (
	// ErrNotFound indicates the requested job is no longer known to the
	// control plane (purged between listing and detail query).
	ErrNotFound = errors.New("job not found")

	// ErrTransient indicates a network or timeout failure on a query.
	// Callers recover by skipping the current poll tick and retrying.
	ErrTransient = errors.New("transient query failure")
)

// ClientError wraps control-plane failures with operation context.
type ClientError struct {
	// Op is the operation that failed (e.g., "ListJobs", "CancelJob").
	Op string

	// Endpoint is the request target, if applicable.
	Endpoint string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a purged or unknown job.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient returns true if the error indicates a recoverable query failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
