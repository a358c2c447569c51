// Package metrics exposes gateway telemetry to Prometheus.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements joalistay.RequestObserver.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ForcedLogouts   prometheus.Counter
	GuardDecisions  *prometheus.CounterVec
}

// New registers the collectors on registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joalistay_gateway_requests_total",
				Help: "Total number of backend requests by endpoint and status",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joalistay_gateway_request_duration_seconds",
				Help:    "Backend request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		ForcedLogouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "joalistay_forced_logouts_total",
				Help: "Sessions ended because the backend answered 401",
			},
		),
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joalistay_guard_decisions_total",
				Help: "Route guard outcomes",
			},
			[]string{"state"},
		),
	}
}

// ObserveRequest records one backend call. Status 0 means the call never got
// an answer.
func (m *Metrics) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	endpoint = Endpoint(endpoint)
	m.Requests.WithLabelValues(method, endpoint, statusLabel(status)).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) ObserveForcedLogout() {
	m.ForcedLogouts.Inc()
}

// ObserveGuard counts a guard outcome by its state name.
func (m *Metrics) ObserveGuard(state string) {
	m.GuardDecisions.WithLabelValues(state).Inc()
}

func statusLabel(status int) string {
	if status == 0 {
		return "error"
	}
	return strconv.Itoa(status)
}

// Endpoint collapses numeric path segments and drops the query so label
// cardinality stays bounded.
func Endpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.Atoi(p); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
