package swift

import (
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// transportMetrics holds Prometheus collectors for store round-trips.
// A nil *transportMetrics is valid and records nothing, so instrumentation
// stays optional.
type transportMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// newTransportMetrics registers request metrics on reg. A nil registerer
// disables instrumentation.
func newTransportMetrics(reg prometheus.Registerer) *transportMetrics {
	if reg == nil {
		return nil
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "swiftfs",
		Subsystem: "store",
		Name:      "requests_total",
		Help:      "Total number of object store requests, partitioned by method and status code.",
	}, []string{"method", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "swiftfs",
		Subsystem: "store",
		Name:      "request_duration_seconds",
		Help:      "Histogram of object store request latencies.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	reg.MustRegister(requests, latency)

	return &transportMetrics{
		requests: requests,
		latency:  latency,
	}
}

// observe records one completed round-trip.
func (m *transportMetrics) observe(method string, resp *resty.Response, dur time.Duration) {
	if m == nil {
		return
	}

	code := "error"
	if resp != nil && resp.RawResponse != nil {
		code = strconv.Itoa(resp.StatusCode())
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.latency.WithLabelValues(method).Observe(dur.Seconds())
}
