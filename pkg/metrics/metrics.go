package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CardMetrics counts cache and generation outcomes for weather cards.
type CardMetrics struct {
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	Generations        prometheus.Counter
	GenerationFailures prometheus.Counter
}

// NewCardMetrics registers the card counters on the given registerer.
func NewCardMetrics(reg prometheus.Registerer) *CardMetrics {
	m := &CardMetrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_cache_hits_total",
			Help: "Requests served from an existing object in the card bucket.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_cache_misses_total",
			Help: "Requests that found no object for the computed card key.",
		}),
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_generations_total",
			Help: "Cards generated and persisted.",
		}),
		GenerationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "card_generation_failures_total",
			Help: "Generation attempts that ended in an error.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheHits, m.CacheMisses, m.Generations, m.GenerationFailures)
	}
	return m
}
