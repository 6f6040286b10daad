package backend

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    requests = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "mutualhelp_backend_requests_total",
        Help: "Requests relayed to the backend API by resource, method and outcome.",
    }, []string{"resource", "method", "outcome"})

    duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
        Name:    "mutualhelp_backend_request_duration_seconds",
        Help:    "Latency of requests relayed to the backend API.",
        Buckets: prometheus.DefBuckets,
    }, []string{"resource", "method"})

    cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
        Name: "mutualhelp_backend_cache_lookups_total",
        Help: "Read cache lookups by result.",
    }, []string{"result"})
)

func observe(call Call, o Outcome, d time.Duration) {
    requests.WithLabelValues(call.Resource, call.Method, o.String()).Inc()
    duration.WithLabelValues(call.Resource, call.Method).Observe(d.Seconds())
}
