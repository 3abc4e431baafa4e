package tilearchive

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// serverMetrics holds the prometheus collectors for Server. Grounded on
// the teacher's server_metrics.go, trimmed to the counters this server
// actually has occasion to update (no bucket-refresh/etag churn, since
// RangeProvider has no etag concept).
type serverMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	cacheRequests   *prometheus.CounterVec
}

func newServerMetrics(namespace string) *serverMetrics {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
		}, []string{"archive", "handler", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
		}, []string{"archive", "handler", "status"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
		}, []string{"archive", "handler", "status"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_cache_requests_total",
		}, []string{"archive", "result"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.requestDuration, m.responseSize, m.cacheRequests} {
		if err := prometheus.Register(c); err != nil {
			if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
				fmt.Println("tilearchive: error registering metric:", err)
			}
		}
	}
	return m
}

type requestTracker struct {
	start    time.Time
	metrics  *serverMetrics
	finished bool
}

func (m *serverMetrics) startRequest() *requestTracker {
	return &requestTracker{start: time.Now(), metrics: m}
}

func (r *requestTracker) finish(archive, handler string, status, size int) {
	if r.finished {
		return
	}
	r.finished = true
	labels := []string{archive, handler, fmt.Sprintf("%d", status)}
	r.metrics.requests.WithLabelValues(labels...).Inc()
	r.metrics.requestDuration.WithLabelValues(labels...).Observe(time.Since(r.start).Seconds())
	r.metrics.responseSize.WithLabelValues(labels...).Observe(float64(size))
}
