package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    EndpointLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "hemopulse",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of demand endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    EndpointErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hemopulse",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by demand endpoint",
        },
        []string{"endpoint"},
    )

    DashboardCache = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hemopulse",
            Subsystem: "api",
            Name:      "dashboard_cache_total",
            Help:      "Dashboard cache lookups by outcome",
        },
        []string{"outcome"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(EndpointLatency, EndpointErrors, DashboardCache)
    })
}
