// Package metrics exports facet counting metrics to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "facetcount"

// Collector implements facetcount.MetricsCollector with Prometheus vectors.
type Collector struct {
	FacetsTotal    *prometheus.CounterVec
	FacetDuration  *prometheus.HistogramVec
	FallbacksTotal prometheus.Counter
	LoadsTotal     *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	LoadedSegments prometheus.Counter
	DeletesTotal   *prometheus.CounterVec
	DeletedRows    prometheus.Counter
}

// New creates a Collector. Call Register to expose it.
func New() *Collector {
	return &Collector{
		FacetsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "facets_total",
				Help:      "Total number of facet counts",
			},
			[]string{"strategy", "status"},
		),
		FacetDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "facet_duration_seconds",
				Help:      "Facet count duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"strategy"},
		),
		FallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fallbacks_total",
			Help:      "Global counts that fell back to a segment scan",
		}),
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "loads_total",
				Help:      "Total number of index loads",
			},
			[]string{"status"},
		),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "load_duration_seconds",
			Help:      "Index load duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		LoadedSegments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "loaded_segments_total",
			Help:      "Total number of loaded segments",
		}),
		DeletesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "deletes_total",
				Help:      "Total number of delete calls",
			},
			[]string{"status"},
		),
		DeletedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "deleted_rows_total",
			Help:      "Total number of rows passed to delete",
		}),
	}
}

// Register registers every metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, m := range []prometheus.Collector{
		c.FacetsTotal, c.FacetDuration, c.FallbacksTotal,
		c.LoadsTotal, c.LoadDuration, c.LoadedSegments,
		c.DeletesTotal, c.DeletedRows,
	} {
		errs = append(errs, reg.Register(m))
	}
	return errors.Join(errs...)
}

// RecordFacet implements facetcount.MetricsCollector.
func (c *Collector) RecordFacet(strategy string, d time.Duration, err error) {
	c.FacetsTotal.WithLabelValues(strategy, status(err)).Inc()
	c.FacetDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// RecordFallback implements facetcount.MetricsCollector.
func (c *Collector) RecordFallback() {
	c.FallbacksTotal.Inc()
}

// RecordLoad implements facetcount.MetricsCollector.
func (c *Collector) RecordLoad(segments int, d time.Duration, err error) {
	c.LoadsTotal.WithLabelValues(status(err)).Inc()
	c.LoadDuration.Observe(d.Seconds())
	if err == nil {
		c.LoadedSegments.Add(float64(segments))
	}
}

// RecordDelete implements facetcount.MetricsCollector.
func (c *Collector) RecordDelete(rows int, _ time.Duration, err error) {
	c.DeletesTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.DeletedRows.Add(float64(rows))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
