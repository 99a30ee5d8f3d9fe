package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_provider_attempts_total",
			Help: "Total number of generation provider calls by provider and result.",
		},
		[]string{"provider", "result"},
	)

	providerLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repurpose_provider_latency_seconds",
			Help:    "Latency of generation provider calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider"},
	)

	platformOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_platform_outcomes_total",
			Help: "Total number of per-platform generation outcomes.",
		},
		[]string{"platform", "status"},
	)

	persistenceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repurpose_persistence_failures_total",
			Help: "Generation records that could not be stored or archived.",
		},
		[]string{"target"},
	)
)

// ObserveProviderAttempt 记录一次生成服务调用，result 为 ok 或错误类型
func ObserveProviderAttempt(provider, result string, seconds float64) {
	providerAttemptsTotal.WithLabelValues(provider, result).Inc()
	providerLatencySeconds.WithLabelValues(provider).Observe(seconds)
}

func ObservePlatformOutcome(platform string, success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	platformOutcomesTotal.WithLabelValues(platform, status).Inc()
}

// ObservePersistenceFailure target 为 database 或 archive
func ObservePersistenceFailure(target string) {
	persistenceFailuresTotal.WithLabelValues(target).Inc()
}
