// Package metrics provides Prometheus metrics for linesync.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "linesync"

var (
	// BuildInfo is always 1, labeled with version information.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	}, []string{"version", "go_version"})

	// RunsTotal counts reconciliation passes by status (success, partial, error).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "runs_total",
		Help:      "Total reconciliation passes by status.",
	}, []string{"status"})

	// RunDuration observes the wall time of each pass, including inter-line delays.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of reconciliation passes.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	})

	// LastRunTimestamp is the unix time the last pass completed.
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed reconciliation pass.",
	})

	// LineOutcomesTotal counts per-line outcomes.
	LineOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "line_outcomes_total",
		Help:      "Per-line reconciliation outcomes.",
	}, []string{"line", "outcome"})

	// RecordOperationsTotal counts mutating calls by operation and status.
	RecordOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "record_operations_total",
		Help:      "Record set create, update and delete operations by status.",
	}, []string{"operation", "status"})

	// TargetFetchesTotal counts target resolutions by line and result.
	TargetFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "target_fetches_total",
		Help:      "Target source resolutions by line and result (found, missing).",
	}, []string{"line", "result"})

	// ProviderAPIRequestsTotal counts provider API calls.
	ProviderAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_api_requests_total",
		Help:      "Provider API requests by provider, operation and status.",
	}, []string{"provider", "operation", "status"})

	// ProviderAPIDuration observes provider API call latency.
	ProviderAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "provider_api_duration_seconds",
		Help:      "Provider API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// ProviderHealthy is 1 when the last provider ping succeeded.
	ProviderHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "provider_healthy",
		Help:      "Whether the last provider health check succeeded.",
	}, []string{"provider"})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.Reset()
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// StatusLabel maps an error to the status label used by counters.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
