package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "autobuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	exportDuration prom.Histogram
	bundleSize     prom.Histogram
	outcomes       *prom.CounterVec
	softFailures   *prom.CounterVec
	swept          prom.Counter
	jobs           *prom.GaugeVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "export_stage_duration_seconds",
			Help:      "Duration of individual export stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		exportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Total export duration",
			Buckets:   prom.DefBuckets,
		}),
		bundleSize: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "export_bundle_bytes",
			Help:      "Size of produced export archives",
			Buckets:   prom.ExponentialBuckets(1024, 4, 10),
		}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "export_outcomes_total",
			Help:      "Export outcomes by final status",
		}, []string{"outcome"}),
		softFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "export_soft_failures_total",
			Help:      "Secondary failures that did not change the export outcome",
		}, []string{"kind"}),
		swept: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "export_jobs_swept_total",
			Help:      "Registry entries evicted by the TTL sweep",
		}),
		jobs: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "export_jobs",
			Help:      "Registry entries by status",
		}, []string{"status"}),
	}
	reg.MustRegister(pr.stageDuration, pr.exportDuration, pr.bundleSize, pr.outcomes, pr.softFailures, pr.swept, pr.jobs)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBundleSize(bytes int64) {
	p.bundleSize.Observe(float64(bytes))
}

func (p *PrometheusRecorder) IncExportOutcome(outcome Outcome) {
	p.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSoftFailure(kind string) {
	p.softFailures.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) AddSwept(n int) {
	if n > 0 {
		p.swept.Add(float64(n))
	}
}

func (p *PrometheusRecorder) SetJobs(status string, n int) {
	p.jobs.WithLabelValues(status).Set(float64(n))
}
