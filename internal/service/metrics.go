package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records service outcomes. A nil *Metrics records nothing.
type Metrics struct {
	codesGenerated prometheus.Counter
	generations    *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		codesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Name:      "generated_total",
			Help:      "Codes persisted by successful generation requests.",
		}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Name:      "generation_requests_total",
			Help:      "Generation requests by outcome.",
		}, []string{"outcome"}),
		redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discount_codes",
			Name:      "redemptions_total",
			Help:      "Redemption attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) generation(outcome string, codes int) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	if codes > 0 {
		m.codesGenerated.Add(float64(codes))
	}
}

func (m *Metrics) redemption(result string) {
	if m != nil {
		m.redemptions.WithLabelValues(result).Inc()
	}
}
