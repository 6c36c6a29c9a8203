package aggregation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes.
const (
	outcomeRouted        = "routed"
	outcomeUnacked       = "unacknowledged"
	outcomeInvalid       = "invalid_value"
	outcomeUnknownSource = "unknown_source"
)

// Metrics instruments the engine. A nil *Metrics records nothing.
type Metrics struct {
	events  *prometheus.CounterVec
	rollups *prometheus.CounterVec
	samples prometheus.Counter
}

// NewMetrics registers the engine collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "engine",
			Name:      "events_total",
			Help:      "Events received by the router, by outcome.",
		}, []string{"outcome"}),
		rollups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "engine",
			Name:      "rollups_total",
			Help:      "Period rollups scheduled, by period.",
		}, []string{"period"}),
		samples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "engine",
			Name:      "five_min_samples_total",
			Help:      "Five-minute sampling rounds scheduled.",
		}),
	}
}

func (m *Metrics) event(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) rollup(p Period) {
	if m == nil {
		return
	}
	m.rollups.WithLabelValues(p.String()).Inc()
}

func (m *Metrics) sample() {
	if m == nil {
		return
	}
	m.samples.Inc()
}
