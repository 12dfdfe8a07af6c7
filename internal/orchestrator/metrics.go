package orchestrator

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder observes the terminal outcome of every Perform call.
// Outcome is "success" or the error kind.
type MetricsRecorder interface {
	Observe(ctx context.Context, intent Intent, outcome string, attempts int, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, Intent, string, int, time.Duration) {}

// PrometheusRecorder exports request outcomes, attempt counts and latency.
type PrometheusRecorder struct {
	requests *prometheus.CounterVec
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simsync",
			Name:      "requests_total",
			Help:      "Logical API requests by intent and terminal outcome.",
		}, []string{"resource", "method", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simsync",
			Name:      "request_attempts_total",
			Help:      "Transport calls made, including auth retries.",
		}, []string{"resource", "method", "attempts"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simsync",
			Name:      "request_duration_seconds",
			Help:      "Time from first attempt to terminal outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource", "method"}),
	}

	for _, c := range []prometheus.Collector{r.requests, r.attempts, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Observe(_ context.Context, intent Intent, outcome string, attempts int, duration time.Duration) {
	r.requests.WithLabelValues(intent.Resource, intent.Method, outcome).Inc()
	r.attempts.WithLabelValues(intent.Resource, intent.Method, strconv.Itoa(attempts)).Inc()
	r.duration.WithLabelValues(intent.Resource, intent.Method).Observe(duration.Seconds())
}
