// Package promstats reports metrics to a Prometheus registry.
package promstats

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/discochess/chessassist/internal/stats"
)

var _ stats.Collector = (*Collector)(nil)

// Collector creates Prometheus metrics on first use, one per name.
type Collector struct {
	registry prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// New creates a collector registering into registry, or into
// prometheus.DefaultRegisterer when registry is nil.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (c *Collector) IncCounter(name string, delta int64) {
	m := lookup(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help(name)})
	})
	m.Add(float64(delta))
}

func (c *Collector) SetGauge(name string, value int64) {
	m := lookup(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help(name)})
	})
	m.Set(float64(value))
}

func (c *Collector) ObserveHistogram(name string, value float64) {
	m := lookup(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help(name),
			Buckets: prometheus.DefBuckets,
		})
	})
	m.Observe(value)
}

// lookup returns the cached metric for name, registering a new one if needed.
// A metric already registered under the same name by someone else is reused.
func lookup[M prometheus.Collector](c *Collector, cache map[string]M, name string, create func() M) M {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := cache[name]; ok {
		return m
	}
	m := create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
	}
	cache[name] = m
	return m
}

var helpTexts = map[string]string{
	stats.MetricAnalyses:        "Positions analysed.",
	stats.MetricAnalysisErrors:  "Analyses that failed.",
	stats.MetricAnalysisSeconds: "Wall time per analysis in seconds.",
	stats.MetricEngineSearches:  "Searches sent to the UCI engine.",
	stats.MetricVisionCalls:     "Requests sent to the vision model.",
	stats.MetricResultCacheHits: "Analyses served from the result cache.",
	stats.MetricBookLookups:     "Opening book lookups.",
	stats.MetricBookHits:        "Opening book lookups that found the position.",
	stats.MetricBookMisses:      "Opening book lookups that missed.",
	stats.MetricShardFetches:    "Book shards fetched from storage.",
	stats.MetricCacheHits:       "Shard cache hits.",
	stats.MetricCacheMisses:     "Shard cache misses.",
	stats.MetricCacheSize:       "Shards held in the cache.",
	stats.MetricRequests:        "HTTP requests served.",
	stats.MetricSocketSessions:  "Open WebSocket sessions.",
}

func help(name string) string {
	if h, ok := helpTexts[name]; ok {
		return h
	}
	return name
}
