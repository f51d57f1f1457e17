package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Window metrics
	windowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walkeval_windows_total",
			Help: "Total number of evaluation windows processed by outcome",
		},
		[]string{"outcome"},
	)

	windowFitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walkeval_window_fit_duration_seconds",
			Help:    "Distribution of per-window fit/predict durations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Tuning metrics
	tuningFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "walkeval_tuning_fallbacks_total",
			Help: "Windows where degenerate folds forced default hyper-parameters",
		},
	)

	// Run metrics
	activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "walkeval_active_runs",
			Help: "Number of rolling evaluations currently in flight",
		},
	)

	diagnosticsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walkeval_diagnostics_total",
			Help: "Total number of run diagnostics by category",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(windowsTotal)
	prometheus.MustRegister(windowFitDuration)
	prometheus.MustRegister(tuningFallbacks)
	prometheus.MustRegister(activeRuns)
	prometheus.MustRegister(diagnosticsTotal)
}

// MetricsHandler handles the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordWindow records the outcome of one evaluated window ("ok", "failed"
// or "skipped") and its wall-clock duration in seconds.
func RecordWindow(outcome string, seconds float64) {
	windowsTotal.WithLabelValues(outcome).Inc()
	windowFitDuration.Observe(seconds)
	DefaultHealth.WindowCompleted()
}

// RecordTuningFallback records a window that fell back to default
// hyper-parameters.
func RecordTuningFallback() {
	tuningFallbacks.Inc()
}

// RecordDiagnostic records a run diagnostic by category.
func RecordDiagnostic(category string) {
	diagnosticsTotal.WithLabelValues(category).Inc()
}

// RunStarted marks a rolling evaluation as in flight.
func RunStarted(plannedWindows int) {
	activeRuns.Inc()
	DefaultHealth.RunStarted(plannedWindows)
}

// RunFinished marks a rolling evaluation as complete.
func RunFinished() {
	activeRuns.Dec()
	DefaultHealth.RunFinished()
}
