package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/3leaps/gostratus/pkg/bench"
)

// ErrWriterClosed indicates a write after Close.
var ErrWriterClosed = errors.New("writer is closed")

// WriteError wraps output failures with operation context.
type WriteError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer outputs JSONL records for benchmark runs.
//
// Implementations must be safe for concurrent use. Each Write* method
// emits a complete record as a single line of JSON followed by a newline.
type Writer interface {
	// WriteResult emits a final benchmark result record.
	WriteResult(ctx context.Context, res *bench.Result) error

	// WriteProgress emits a per-tick progress record.
	WriteProgress(ctx context.Context, prog *ProgressRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, rec *ErrorRecord) error

	// WriteSummary emits an end-of-session summary record.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized with a
// mutex to keep lines atomic (no interleaved output).
type JSONLWriter struct {
	w     io.Writer
	runID string
	mu    sync.Mutex

	closed bool
}

// Ensure JSONLWriter implements the interface.
var _ Writer = (*JSONLWriter)(nil)

// NewJSONLWriter creates a new JSONL writer.
//
// The runID correlates all records emitted for one benchmark session.
func NewJSONLWriter(w io.Writer, runID string) *JSONLWriter {
	return &JSONLWriter{w: w, runID: runID}
}

// WriteResult emits a final benchmark result record.
func (jw *JSONLWriter) WriteResult(ctx context.Context, res *bench.Result) error {
	return jw.writeRecord(ctx, TypeResult, res)
}

// WriteProgress emits a per-tick progress record.
func (jw *JSONLWriter) WriteProgress(ctx context.Context, prog *ProgressRecord) error {
	return jw.writeRecord(ctx, TypeProgress, prog)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, rec *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, rec)
}

// WriteSummary emits an end-of-session summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, sum)
}

// Close marks the writer as closed.
//
// If the underlying writer implements io.Closer, it is NOT closed.
// The caller is responsible for closing the underlying writer.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

// writeRecord marshals data and writes a complete record line.
func (jw *JSONLWriter) writeRecord(ctx context.Context, recordType string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return &WriteError{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	record := Record{
		Type:  recordType,
		TS:    time.Now().UTC(),
		RunID: jw.runID,
		Data:  dataBytes,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return &WriteError{Op: "marshal_record", Err: err}
	}

	// Handle short writes: io.Writer may return n < len(p) with nil
	// error, which would silently truncate JSONL lines.
	recordBytes = append(recordBytes, '\n')
	if err := writeAll(jw.w, recordBytes); err != nil {
		return &WriteError{Op: "write", Err: err}
	}

	return nil
}

// writeAll writes the full buffer, retrying on short writes.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}
