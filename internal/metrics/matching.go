package metrics

import "github.com/prometheus/client_golang/prometheus"

// Matching pipeline Prometheus metrics.
var (
	MatchSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarmatch",
			Name:      "match_searches_total",
			Help:      "Total similarity searches by strategy and backend",
		},
		[]string{"strategy", "backend"}, // strategy: query/profile/blended, backend: qdrant/bruteforce
	)

	MatchSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholarmatch",
			Name:      "match_search_duration_seconds",
			Help:      "End-to-end match request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy", "backend"},
	)

	MatchThresholdRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scholarmatch",
			Name:      "match_threshold_retries_total",
			Help:      "Threshold backoff retries after an empty result set",
		},
	)

	MatchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scholarmatch",
			Name:      "match_results_returned",
			Help:      "Number of results returned per match request",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50, 100},
		},
	)

	RecommendationCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholarmatch",
			Name:      "recommendation_cache_total",
			Help:      "Recommendation fingerprint cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var matchMetricsRegistered bool

// RegisterMatchingMetrics registers Prometheus matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchMetricsRegistered {
		return
	}
	prometheus.MustRegister(MatchSearchesTotal)
	prometheus.MustRegister(MatchSearchDuration)
	prometheus.MustRegister(MatchThresholdRetriesTotal)
	prometheus.MustRegister(MatchResultsReturned)
	prometheus.MustRegister(RecommendationCacheTotal)
	matchMetricsRegistered = true
}
