package metrics

import "time"

// Outcome labels the final result of an export.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeRejected  Outcome = "rejected"
)

// Recorder defines observability hooks for export metrics. Implementations
// may forward to Prometheus or similar backends.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveExportDuration(d time.Duration)
	ObserveBundleSize(bytes int64)
	IncExportOutcome(outcome Outcome)
	IncSoftFailure(kind string) // kind: status_persist|mirror|cleanup
	AddSwept(n int)
	SetJobs(status string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveExportDuration(time.Duration)        {}
func (NoopRecorder) ObserveBundleSize(int64)                    {}
func (NoopRecorder) IncExportOutcome(Outcome)                   {}
func (NoopRecorder) IncSoftFailure(string)                      {}
func (NoopRecorder) AddSwept(int)                               {}
func (NoopRecorder) SetJobs(string, int)                        {}
