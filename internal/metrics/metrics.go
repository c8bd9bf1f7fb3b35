// Package metrics records run metrics behind a small, backend-agnostic
// interface. The default backend is a no-op, so instrumentation is always
// safe to call; concrete systems (Prometheus Pushgateway, DogStatsD) live in
// subpackages and are installed with SetBackend.
package metrics

import "time"

// Metric names.
const (
	FilesTotal   = "colsplit_files_total"
	FileDuration = "colsplit_file_duration_seconds"
	RowsTotal    = "colsplit_rows_total"
	ChunksTotal  = "colsplit_chunks_total"
	RunDuration  = "colsplit_run_duration_seconds"
)

// File statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// Recorder tags everything it records with one job name. A nil *Recorder
// records nothing.
type Recorder struct {
	job string
	b   Backend
}

// NewRecorder returns a Recorder for job. A nil b means "whatever backend is
// installed when a metric is recorded".
func NewRecorder(job string, b Backend) *Recorder {
	return &Recorder{job: job, b: b}
}

func (r *Recorder) backend() Backend {
	if r.b != nil {
		return r.b
	}
	return backend
}

// File records the outcome of one input file. kind is the error kind for
// failures and empty otherwise.
func (r *Recorder) File(status, kind string, d time.Duration) {
	if r == nil {
		return
	}
	lbls := Labels{"job": r.job, "status": status}
	if kind != "" {
		lbls["kind"] = kind
	}
	b := r.backend()
	b.IncCounter(FilesTotal, 1, lbls)
	if status != StatusSkipped {
		b.ObserveHistogram(FileDuration, d.Seconds(), Labels{"job": r.job, "status": status})
	}
}

// Rows counts data rows written.
func (r *Recorder) Rows(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.backend().IncCounter(RowsTotal, float64(n), Labels{"job": r.job})
}

// Chunks counts chunks written.
func (r *Recorder) Chunks(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.backend().IncCounter(ChunksTotal, float64(n), Labels{"job": r.job})
}

// Run records the wall time of a whole run.
func (r *Recorder) Run(d time.Duration) {
	if r == nil {
		return
	}
	r.backend().ObserveHistogram(RunDuration, d.Seconds(), Labels{"job": r.job})
}
