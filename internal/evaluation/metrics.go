package evaluation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Judge call outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Metrics tracks judge calls. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the judge metrics on reg. With a nil registerer the
// collectors are created but not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arbiter_judge_calls_total",
			Help: "Judge calls by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbiter_judge_call_duration_seconds",
			Help:    "Latency of judge calls including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
