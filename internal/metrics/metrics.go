package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classhelper",
		Name:      "upstream_requests_total",
		Help:      "Calls made to the classroom REST API, by endpoint and status class.",
	}, []string{"endpoint", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classhelper",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of classroom REST API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	enrichFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classhelper",
		Name:      "enrich_fallbacks_total",
		Help:      "Per-item lookups that failed and were replaced by a placeholder.",
	}, []string{"kind"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classhelper",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"limiter"})
)

// ObserveUpstream records one API call. A zero status means the request
// never produced a response (transport error or cancellation).
func ObserveUpstream(endpoint string, status int, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// EnrichFallback counts a placeholder substitution for the given entity kind.
func EnrichFallback(kind string) {
	enrichFallbacks.WithLabelValues(kind).Inc()
}

// RateLimited counts a request rejected by the named limiter.
func RateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
