package cache

import "github.com/prometheus/client_golang/prometheus"

// storeMetrics holds Prometheus metrics for store operations.
type storeMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
	writes prometheus.Counter
	size   prometheus.Gauge
}

// newStoreMetrics creates and registers store metrics with the provided registry.
func newStoreMetrics(registry prometheus.Registerer, prefix string) (*storeMetrics, error) {
	m := &storeMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pageql",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pageql",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        "Total number of cache misses",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pageql",
			Subsystem:   "cache",
			Name:        "writes_total",
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        "Total number of query writes",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "pageql",
			Subsystem:   "cache",
			Name:        "records",
			ConstLabels: prometheus.Labels{"store": prefix},
			Help:        "Current number of records in the store",
		}),
	}

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.writes, m.size} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *storeMetrics) recordHit()  { m.hits.Inc() }
func (m *storeMetrics) recordMiss() { m.misses.Inc() }

func (m *storeMetrics) recordWrite() { m.writes.Inc() }

func (m *storeMetrics) updateSize(size int) { m.size.Set(float64(size)) }
