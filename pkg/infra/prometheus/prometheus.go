package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aura_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"method"},
	)

	RateLimitRejectedTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aura_rate_limit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"method"},
	)

	RateLimitTrackedClients = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "aura_rate_limit_tracked_clients",
			Help: "Client entries currently held by the rate limiter",
		},
	)
)

func init() {
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registry exposes the private registry for the metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}
