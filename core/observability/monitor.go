// Package observability provides request metrics and the structured
// logger used across the server. Both are injected collaborators: the
// core never logs or measures through package-level state.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Monitor collects per-route request metrics with atomic counters. A nil
// Monitor is valid and records nothing.
type Monitor struct {
	enabled atomic.Bool
	routes  sync.Map // route -> *RouteMetrics
	global  struct {
		totalRequests atomic.Uint64
		totalErrors   atomic.Uint64
		totalDuration atomic.Uint64
	}
}

// RouteMetrics stores metrics for a single route.
type RouteMetrics struct {
	Route          string
	Count          atomic.Uint64
	Errors         atomic.Uint64
	TotalDuration  atomic.Uint64
	MinDuration    atomic.Uint64
	MaxDuration    atomic.Uint64
	latencyBuckets [8]atomic.Uint64
}

// NewMonitor creates an enabled monitor.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.enabled.Store(true)
	return m
}

// SetEnabled toggles recording.
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// RecordRequest records one handled request for a route.
func (m *Monitor) RecordRequest(route string, duration time.Duration, isError bool) {
	if m == nil || !m.enabled.Load() {
		return
	}

	val, _ := m.routes.LoadOrStore(route, &RouteMetrics{Route: route})
	metrics := val.(*RouteMetrics)

	metrics.Count.Add(1)
	if isError {
		metrics.Errors.Add(1)
		m.global.totalErrors.Add(1)
	}

	durationNs := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(durationNs)
	updateMinMax(metrics, durationNs)
	metrics.latencyBuckets[bucketIndex(durationNs)].Add(1)

	m.global.totalRequests.Add(1)
	m.global.totalDuration.Add(durationNs)
}

func updateMinMax(m *RouteMetrics, d uint64) {
	for {
		min := m.MinDuration.Load()
		if min != 0 && d >= min {
			break
		}
		if m.MinDuration.CompareAndSwap(min, d) {
			break
		}
	}
	for {
		max := m.MaxDuration.Load()
		if d <= max {
			break
		}
		if m.MaxDuration.CompareAndSwap(max, d) {
			break
		}
	}
}

func bucketIndex(durationNs uint64) int {
	ms := durationNs / 1_000_000
	switch {
	case ms < 1:
		return 0
	case ms < 5:
		return 1
	case ms < 10:
		return 2
	case ms < 50:
		return 3
	case ms < 100:
		return 4
	case ms < 500:
		return 5
	case ms < 1000:
		return 6
	default:
		return 7
	}
}

// RouteSnapshot is a point-in-time view of one route's metrics.
type RouteSnapshot struct {
	Route         string `json:"route"`
	Count         uint64 `json:"count"`
	Errors        uint64 `json:"errors"`
	AvgDurationNs uint64 `json:"avg_duration_ns"`
	MinDurationNs uint64 `json:"min_duration_ns"`
	MaxDurationNs uint64 `json:"max_duration_ns"`
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	TotalRequests uint64          `json:"total_requests"`
	TotalErrors   uint64          `json:"total_errors"`
	AvgDurationNs uint64          `json:"avg_duration_ns"`
	Routes        []RouteSnapshot `json:"routes"`
}

// Snapshot returns the current metrics. A nil Monitor returns a zero
// snapshot.
func (m *Monitor) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}

	snap := Snapshot{
		TotalRequests: m.global.totalRequests.Load(),
		TotalErrors:   m.global.totalErrors.Load(),
	}
	if snap.TotalRequests > 0 {
		snap.AvgDurationNs = m.global.totalDuration.Load() / snap.TotalRequests
	}

	m.routes.Range(func(_, val any) bool {
		rm := val.(*RouteMetrics)
		rs := RouteSnapshot{
			Route:         rm.Route,
			Count:         rm.Count.Load(),
			Errors:        rm.Errors.Load(),
			MinDurationNs: rm.MinDuration.Load(),
			MaxDurationNs: rm.MaxDuration.Load(),
		}
		if rs.Count > 0 {
			rs.AvgDurationNs = rm.TotalDuration.Load() / rs.Count
		}
		snap.Routes = append(snap.Routes, rs)
		return true
	})

	return snap
}
