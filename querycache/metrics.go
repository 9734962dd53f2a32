package querycache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "wallet_query"

// Metrics holds the cache counters.
type Metrics struct {
	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Joins         prometheus.Counter
	Fetches       prometheus.Counter
	Invalidations prometheus.Counter
	Rollbacks     prometheus.Counter
	Evictions     prometheus.Counter
}

// NewMetrics creates the counters and registers them on reg when it is not
// nil. Counters already registered by another cache are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Hits:          counter(reg, "cache_hits_total", "Reads served from a fresh entry."),
		Misses:        counter(reg, "cache_misses_total", "Reads that started a fetch."),
		Joins:         counter(reg, "cache_dedup_joins_total", "Reads that joined an in-flight fetch."),
		Fetches:       counter(reg, "cache_fetches_total", "Fetch executions started."),
		Invalidations: counter(reg, "cache_invalidations_total", "Entries marked stale."),
		Rollbacks:     counter(reg, "optimistic_rollbacks_total", "Optimistic patches rolled back."),
		Evictions:     counter(reg, "cache_evictions_total", "Idle entries evicted."),
	}
}

func counter(reg prometheus.Registerer, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	})
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return c
}
