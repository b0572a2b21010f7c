// Package prom exports cache.Metrics as Prometheus collectors.
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/colorcache/cache"
)

// Adapter implements cache.Metrics with Prometheus counters and a gauge.
// All Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	evicts  *prometheus.CounterVec
	entries prometheus.Gauge
}

// New registers the adapter's collectors.
//   - reg:         registry (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     namespace and subsystem
//   - constLabels: static labels for every series (may be nil)
//
// Evictions carry a "color" label; its cardinality is bounded by
// Options.Colors.
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Cache hits",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Cache misses",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason and color bucket",
				ConstLabels: constLabels,
			},
			[]string{"reason", "color"},
		),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of resident entries",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.entries)
	return a
}

func (a *Adapter) Hit()  { a.hits.Inc() }
func (a *Adapter) Miss() { a.misses.Inc() }

// Evict counts one eviction under its reason and color labels.
func (a *Adapter) Evict(r cache.EvictReason, color int) {
	a.evicts.WithLabelValues(r.String(), strconv.Itoa(color)).Inc()
}

// Size sets the resident-entries gauge.
func (a *Adapter) Size(entries int) { a.entries.Set(float64(entries)) }

var _ cache.Metrics = (*Adapter)(nil)
