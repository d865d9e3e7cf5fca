package adapters

import (
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"

	"component-manager/internal/ports"
)

// PrometheusMetrics records engine activity into its own registry, which
// a short-lived CLI run exports as a node-exporter textfile.
type PrometheusMetrics struct {
	Registry *prometheus.Registry

	versionQueries    *prometheus.CounterVec
	solverRestarts    prometheus.Counter
	solveDuration     prometheus.Histogram
	downloads         *prometheus.CounterVec
	integrityFailures *prometheus.CounterVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		Registry: prometheus.NewRegistry(),
		versionQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "component_manager_version_queries_total",
				Help: "Version queries sent to sources, by source kind and result.",
			},
			[]string{"source", "result"},
		),
		solverRestarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "component_manager_solver_restarts_total",
				Help: "Solver walks restarted after an expanded component was narrowed.",
			},
		),
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "component_manager_solve_duration_seconds",
				Help:    "Time taken to solve a manifest tree.",
				Buckets: prometheus.DefBuckets,
			},
		),
		downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "component_manager_downloads_total",
				Help: "Component downloads, by source kind and result.",
			},
			[]string{"source", "result"},
		),
		integrityFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "component_manager_integrity_failures_total",
				Help: "Components whose content did not match the recorded hash.",
			},
			[]string{"component"},
		),
	}
	m.Registry.MustRegister(
		m.versionQueries,
		m.solverRestarts,
		m.solveDuration,
		m.downloads,
		m.integrityFailures,
	)
	return m
}

func (m *PrometheusMetrics) VersionQuery(kind string, err error) {
	m.versionQueries.WithLabelValues(kind, resultLabel(err)).Inc()
}

func (m *PrometheusMetrics) SolverRestart() {
	m.solverRestarts.Inc()
}

func (m *PrometheusMetrics) SolveDuration(d time.Duration) {
	m.solveDuration.Observe(d.Seconds())
}

func (m *PrometheusMetrics) Download(kind string, err error) {
	m.downloads.WithLabelValues(kind, resultLabel(err)).Inc()
}

func (m *PrometheusMetrics) IntegrityFailure(name string) {
	m.integrityFailures.WithLabelValues(name).Inc()
}

// WriteTextfile writes every collected metric to path in the text
// exposition format.
func (m *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics textfile").
			WithCause(err)
	}
	return nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ ports.MetricsPort = (*PrometheusMetrics)(nil)
