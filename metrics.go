package facetcount

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// the metrics package provides one.
type MetricsCollector interface {
	// RecordFacet is called after each facet computation.
	// strategy is "global" or "segment_scan"; err is nil if successful.
	RecordFacet(strategy string, duration time.Duration, err error)

	// RecordFallback is called when a global count fell back to segment scanning.
	RecordFallback()

	// RecordLoad is called after loading segments from storage.
	RecordLoad(segments int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFacet(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordFallback()                          {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FacetCount       atomic.Int64
	FacetErrors      atomic.Int64
	FacetTotalNanos  atomic.Int64
	GlobalCount      atomic.Int64
	SegmentScanCount atomic.Int64
	FallbackCount    atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadedSegments   atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	DeletedRows      atomic.Int64
}

// RecordFacet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFacet(strategy string, duration time.Duration, err error) {
	b.FacetCount.Add(1)
	b.FacetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FacetErrors.Add(1)
		return
	}
	switch strategy {
	case "global":
		b.GlobalCount.Add(1)
	case "segment_scan":
		b.SegmentScanCount.Add(1)
	}
}

// RecordFallback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFallback() {
	b.FallbackCount.Add(1)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(segments int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedSegments.Add(int64(segments))
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(rows int, duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
		return
	}
	b.DeletedRows.Add(int64(rows))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FacetCount:       b.FacetCount.Load(),
		FacetErrors:      b.FacetErrors.Load(),
		FacetAvgNanos:    b.getAvgFacetNanos(),
		GlobalCount:      b.GlobalCount.Load(),
		SegmentScanCount: b.SegmentScanCount.Load(),
		FallbackCount:    b.FallbackCount.Load(),
		LoadCount:        b.LoadCount.Load(),
		LoadErrors:       b.LoadErrors.Load(),
		LoadedSegments:   b.LoadedSegments.Load(),
		DeleteCount:      b.DeleteCount.Load(),
		DeleteErrors:     b.DeleteErrors.Load(),
		DeletedRows:      b.DeletedRows.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFacetNanos() int64 {
	count := b.FacetCount.Load()
	if count == 0 {
		return 0
	}
	return b.FacetTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FacetCount       int64
	FacetErrors      int64
	FacetAvgNanos    int64
	GlobalCount      int64
	SegmentScanCount int64
	FallbackCount    int64
	LoadCount        int64
	LoadErrors       int64
	LoadedSegments   int64
	DeleteCount      int64
	DeleteErrors     int64
	DeletedRows      int64
}
