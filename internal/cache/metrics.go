package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	layerLocal = "local"
	layerRedis = "redis"
)

// Metrics counts cache outcomes per layer. A nil *Metrics records nothing.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics creates the cache counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache lookups that found the key.",
		}, []string{"layer"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache lookups that did not find the key.",
		}, []string{"layer"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache operations that failed.",
		}, []string{"layer"}),
	}
}

func (m *Metrics) hit(layer string) {
	if m != nil {
		m.hits.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) miss(layer string) {
	if m != nil {
		m.misses.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) fail(layer string) {
	if m != nil {
		m.errors.WithLabelValues(layer).Inc()
	}
}
