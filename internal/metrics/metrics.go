// Package metrics exposes Prometheus metrics for advisor workflows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all advisor metrics. Every method is safe on a nil Registry.
type Registry struct {
	reg *prometheus.Registry

	// Workflow metrics
	WorkflowsStarted  prometheus.Counter
	WorkflowsFinished *prometheus.CounterVec
	ActiveWorkflows   prometheus.Gauge
	WorkflowDuration  *prometheus.HistogramVec
	StepDuration      *prometheus.HistogramVec

	// Signal metrics
	SignalGroups *prometheus.CounterVec

	// Recommendation metrics
	Recommendations *prometheus.CounterVec
	Warnings        *prometheus.CounterVec
	Archives        *prometheus.CounterVec
}

// NewRegistry creates a registry with all advisor metrics plus the Go and
// process collectors
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		WorkflowsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "advisor_workflows_started_total",
			Help: "Total number of workflow runs started",
		}),

		WorkflowsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_workflows_finished_total",
			Help: "Total number of workflow runs finished by status",
		}, []string{"status"}),

		ActiveWorkflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "advisor_workflows_active",
			Help: "Number of workflow runs in progress",
		}),

		WorkflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_workflow_duration_seconds",
			Help:    "Duration of workflow runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"status"}),

		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "advisor_workflow_step_duration_seconds",
			Help:    "Duration of each workflow step in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"step"}),

		SignalGroups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_signal_groups_total",
			Help: "Signal groups gathered by group and availability",
		}, []string{"group", "result"}),

		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_recommendations_total",
			Help: "Recommendations built by risk tolerance",
		}, []string{"risk_tolerance"}),

		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_recommendation_warnings_total",
			Help: "Recommendation warnings by code",
		}, []string{"code"}),

		Archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advisor_report_archives_total",
			Help: "Report archive uploads by result",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.WorkflowsStarted,
		r.WorkflowsFinished,
		r.ActiveWorkflows,
		r.WorkflowDuration,
		r.StepDuration,
		r.SignalGroups,
		r.Recommendations,
		r.Warnings,
		r.Archives,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// WorkflowStarted records the start of a run
func (r *Registry) WorkflowStarted() {
	if r == nil {
		return
	}
	r.WorkflowsStarted.Inc()
	r.ActiveWorkflows.Inc()
}

// WorkflowFinished records the end of a run
func (r *Registry) WorkflowFinished(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.ActiveWorkflows.Dec()
	r.WorkflowsFinished.WithLabelValues(status).Inc()
	r.WorkflowDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveStep records the duration of one workflow step
func (r *Registry) ObserveStep(step string, d time.Duration) {
	if r == nil {
		return
	}
	r.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// SignalGroup records whether a signal group was available
func (r *Registry) SignalGroup(group string, available bool) {
	if r == nil {
		return
	}
	result := "available"
	if !available {
		result = "unavailable"
	}
	r.SignalGroups.WithLabelValues(group, result).Inc()
}

// RecommendationBuilt records a built recommendation and its warnings
func (r *Registry) RecommendationBuilt(risk string, warningCodes ...string) {
	if r == nil {
		return
	}
	r.Recommendations.WithLabelValues(risk).Inc()
	for _, code := range warningCodes {
		r.Warnings.WithLabelValues(code).Inc()
	}
}

// ArchiveResult records an archive upload outcome
func (r *Registry) ArchiveResult(ok bool) {
	if r == nil {
		return
	}
	result := "success"
	if !ok {
		result = "error"
	}
	r.Archives.WithLabelValues(result).Inc()
}
