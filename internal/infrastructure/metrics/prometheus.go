// Package metrics records run outcomes in a private Prometheus registry that
// is flushed to a node-exporter textfile after each invocation.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"portal-exporter/internal/application/port/output"
)

const namespace = "portal_exporter"

var _ output.MetricsPort = (*Recorder)(nil)

type Recorder struct {
	registry *prometheus.Registry

	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastRun   *prometheus.GaugeVec
	fallbacks *prometheus.CounterVec
	modals    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Report runs by report, failing stage and outcome.",
		}, []string{"report", "stage", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a report run from session start to release.",
			Buckets:   []float64{15, 30, 60, 90, 120, 180, 300, 600},
		}, []string{"report"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the latest run of the report produced an artifact.",
		}, []string{"report"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fill_fallbacks_total",
			Help:      "Fields that needed the scripted fill strategy.",
		}, []string{"report", "selector"}),
		modals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modals_dismissed_total",
			Help:      "Interstitial dialogs closed before filtering.",
		}, []string{"report", "selector"}),
	}
	r.registry.MustRegister(r.runs, r.duration, r.lastRun, r.fallbacks, r.modals)
	return r
}

func (r *Recorder) RunFinished(report, stage string, ok bool, d time.Duration) {
	outcome, success := "failure", 0.0
	if ok {
		outcome, success = "success", 1.0
	}
	r.runs.WithLabelValues(report, stage, outcome).Inc()
	r.duration.WithLabelValues(report).Observe(d.Seconds())
	r.lastRun.WithLabelValues(report).Set(success)
}

func (r *Recorder) FallbackUsed(report, selector string) {
	r.fallbacks.WithLabelValues(report, selector).Inc()
}

func (r *Recorder) ModalDismissed(report, selector string) {
	r.modals.WithLabelValues(report, selector).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the registry in text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
