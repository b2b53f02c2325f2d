package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	ActiveWatchers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_watchers",
			Help: "Number of open change-notification connections",
		},
	)

	ChangeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_total",
			Help: "Total number of change events forwarded per collection",
		},
		[]string{"collection"},
	)
)

func Register() {
	prometheus.MustRegister(
		HttpRequestsTotal,
		HttpRequestDuration,
		ActiveWatchers,
		ChangeEventsTotal,
	)
}
