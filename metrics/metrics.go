// Package metrics exposes Prometheus metrics for a served cache.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meigma/spacache"
)

const namespace = "spacache"

// Collector records request outcomes and describes the cache contents.
// It satisfies the http package's Observer interface.
type Collector struct {
	requests      *prometheus.CounterVec
	responseBytes prometheus.Counter
	assets        *prometheus.GaugeVec
	arenaBytes    prometheus.Gauge

	// resolved caches the per-resolution counters so observing a request
	// does not look up label values.
	resolved [4]prometheus.Counter
}

// New registers the collector's metrics with reg and sets the cache gauges
// from cache.
func New(reg prometheus.Registerer, cache *spacache.Cache) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served, by lookup resolution.",
		}, []string{"resolution"}),
		responseBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_bytes_total",
			Help:      "Response body bytes written.",
		}),
		assets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "assets",
			Help:      "Cached assets, by table.",
		}, []string{"table"}),
		arenaBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "arena_bytes",
			Help:      "Payload bytes held in memory.",
		}),
	}

	for _, col := range []prometheus.Collector{c.requests, c.responseBytes, c.assets, c.arenaBytes} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	for _, res := range []spacache.Resolution{spacache.Miss, spacache.HitCompressed, spacache.HitPlain, spacache.Fallback} {
		c.resolved[res] = c.requests.WithLabelValues(res.String())
	}

	compressed, plain := cache.Len()
	c.assets.WithLabelValues("compressed").Set(float64(compressed))
	c.assets.WithLabelValues("plain").Set(float64(plain))
	c.arenaBytes.Set(float64(cache.Size()))
	return c, nil
}

// ObserveRequest counts a served request.
func (c *Collector) ObserveRequest(res spacache.Resolution, bytes int) {
	if int(res) < len(c.resolved) {
		c.resolved[res].Inc()
	} else {
		c.requests.WithLabelValues(res.String()).Inc()
	}
	if bytes > 0 {
		c.responseBytes.Add(float64(bytes))
	}
}
