// Package metrics records render activity as prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kirum/internal/transform"
)

// Recorder observes derivation passes. It is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	steps          *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	scriptDuration prometheus.Histogram
	resolved       *prometheus.CounterVec
	passes         *prometheus.CounterVec
	passDuration   prometheus.Histogram
}

// NewRecorder registers kirum's metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kirum_transform_steps_total",
			Help: "Transform primitives applied, by kind",
		}, []string{"kind"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kirum_transform_skipped_total",
			Help: "Transform steps skipped because their conditional did not match",
		}, []string{"transform"}),
		scriptDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kirum_script_duration_seconds",
			Help:    "Duration of script_transform calls",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		resolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kirum_nodes_resolved_total",
			Help: "Lexis entries resolved, by language",
		}, []string{"language"}),
		passes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kirum_render_passes_total",
			Help: "Render passes by result",
		}, []string{"result"}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kirum_render_pass_duration_seconds",
			Help:    "Render pass duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
}

// StepApplied counts one applied primitive.
func (r *Recorder) StepApplied(kind transform.Kind) {
	r.steps.WithLabelValues(string(kind)).Inc()
}

// StepSkipped counts one gated-out step.
func (r *Recorder) StepSkipped(name string) {
	r.skipped.WithLabelValues(name).Inc()
}

// ScriptDuration observes one script call.
func (r *Recorder) ScriptDuration(d time.Duration) {
	r.scriptDuration.Observe(d.Seconds())
}

// NodeResolved counts one resolved entry.
func (r *Recorder) NodeResolved(language string) {
	if language == "" {
		language = "none"
	}
	r.resolved.WithLabelValues(language).Inc()
}

// PassFinished records the outcome of one render pass.
func (r *Recorder) PassFinished(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.passes.WithLabelValues(result).Inc()
	r.passDuration.Observe(d.Seconds())
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
