package queue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
	statusPanic  = "panic"
)

// Metrics instruments a Queue. A nil *Metrics is valid and records nothing.
type Metrics struct {
	depth     prometheus.Gauge
	processed *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the queue collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		depth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tally",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Tasks waiting to run.",
		}),
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "queue",
			Name:      "tasks_total",
			Help:      "Tasks run, by outcome.",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tally",
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Time spent running one task.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.depth.Inc()
}

func (m *Metrics) dequeued() {
	if m == nil {
		return
	}
	m.depth.Dec()
}

func (m *Metrics) observe(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
}
