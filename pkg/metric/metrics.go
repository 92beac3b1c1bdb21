package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reshoe",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reshoe",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reshoe",
		Subsystem: "settlement",
		Name:      "attempts_total",
		Help:      "Settlement attempts by outcome",
	}, []string{"outcome"}) // settled / conflict / rejected / partial

	CommissionPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reshoe",
		Subsystem: "settlement",
		Name:      "commission_minor_units_total",
		Help:      "Commission posted to the ledger, in minor currency units",
	})
)

func ObserveRequest(method, route string, status int, d time.Duration) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
