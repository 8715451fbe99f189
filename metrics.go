package fhirxml

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks decoder performance using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Decode counts
	decodesTotal     atomic.Uint64
	decodesSucceeded atomic.Uint64

	// Timing (stored as nanoseconds)
	decodeTimeTotal atomic.Uint64
	decodeTimeMin   atomic.Uint64
	decodeTimeMax   atomic.Uint64

	// Content
	elementsTotal atomic.Uint64
	skippedTotal  atomic.Uint64

	// Expression cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Failures by error kind
	errorKinds sync.Map // map[string]*atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.decodeTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordDecode records a completed decode call.
func (m *Metrics) RecordDecode(duration time.Duration, ok bool) {
	m.decodesTotal.Add(1)
	if ok {
		m.decodesSucceeded.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.decodeTimeTotal.Add(ns)

	for {
		old := m.decodeTimeMin.Load()
		if ns >= old || m.decodeTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.decodeTimeMax.Load()
		if ns <= old || m.decodeTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordElements adds to the count of decoded elements.
func (m *Metrics) RecordElements(n int) {
	if n > 0 {
		m.elementsTotal.Add(uint64(n))
	}
}

// RecordSkipped adds to the count of subtrees skipped in lenient mode.
func (m *Metrics) RecordSkipped(n int) {
	if n > 0 {
		m.skippedTotal.Add(uint64(n))
	}
}

// RecordCacheHit records an expression cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records an expression cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordError records a failed decode of the given error kind.
func (m *Metrics) RecordError(kind string) {
	if v, ok := m.errorKinds.Load(kind); ok {
		v.(*atomic.Uint64).Add(1)
		return
	}
	actual, _ := m.errorKinds.LoadOrStore(kind, new(atomic.Uint64))
	actual.(*atomic.Uint64).Add(1)
}

// --- Query Methods ---

// DecodesTotal returns the number of decode calls.
func (m *Metrics) DecodesTotal() uint64 {
	return m.decodesTotal.Load()
}

// DecodesSucceeded returns the number of successful decode calls.
func (m *Metrics) DecodesSucceeded() uint64 {
	return m.decodesSucceeded.Load()
}

// SuccessRate returns the share of successful decodes (0.0 to 1.0).
func (m *Metrics) SuccessRate() float64 {
	total := m.decodesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.decodesSucceeded.Load()) / float64(total)
}

// AverageDecodeTime returns the average decode duration.
func (m *Metrics) AverageDecodeTime() time.Duration {
	total := m.decodesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.decodeTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinDecodeTime returns the minimum decode duration.
func (m *Metrics) MinDecodeTime() time.Duration {
	minVal := m.decodeTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MaxDecodeTime returns the maximum decode duration.
func (m *Metrics) MaxDecodeTime() time.Duration {
	return time.Duration(m.decodeTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// ElementsTotal returns the number of elements decoded.
func (m *Metrics) ElementsTotal() uint64 {
	return m.elementsTotal.Load()
}

// SkippedTotal returns the number of subtrees skipped in lenient mode.
func (m *Metrics) SkippedTotal() uint64 {
	return m.skippedTotal.Load()
}

// CacheHits returns the total cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ErrorCount returns the failures recorded for one error kind.
func (m *Metrics) ErrorCount(kind string) uint64 {
	v, ok := m.errorKinds.Load(kind)
	if !ok {
		return 0
	}
	return v.(*atomic.Uint64).Load()
}

// ErrorsTotal returns the failures recorded across all kinds.
func (m *Metrics) ErrorsTotal() uint64 {
	var total uint64
	m.errorKinds.Range(func(_, value any) bool {
		total += value.(*atomic.Uint64).Load()
		return true
	})
	return total
}

// ErrorKindStats is the failure count of one error kind.
type ErrorKindStats struct {
	Kind  string `json:"kind"`
	Count uint64 `json:"count"`
}

// AllErrorKinds returns failure counts sorted by kind.
func (m *Metrics) AllErrorKinds() []ErrorKindStats {
	var stats []ErrorKindStats
	m.errorKinds.Range(func(key, value any) bool {
		stats = append(stats, ErrorKindStats{
			Kind:  key.(string),
			Count: value.(*atomic.Uint64).Load(),
		})
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Kind < stats[j].Kind })
	return stats
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	DecodesTotal     uint64  `json:"decodes_total"`
	DecodesSucceeded uint64  `json:"decodes_succeeded"`
	SuccessRate      float64 `json:"success_rate"`

	AvgDecodeTimeNs uint64 `json:"avg_decode_time_ns"`
	MinDecodeTimeNs uint64 `json:"min_decode_time_ns"`
	MaxDecodeTimeNs uint64 `json:"max_decode_time_ns"`

	ElementsTotal uint64 `json:"elements_total"`
	SkippedTotal  uint64 `json:"skipped_total"`

	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	ErrorsTotal uint64           `json:"errors_total"`
	ErrorKinds  []ErrorKindStats `json:"error_kinds,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	total := m.decodesTotal.Load()
	var avg uint64
	if total > 0 {
		avg = m.decodeTimeTotal.Load() / total
	}
	minTime := m.decodeTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:        time.Now(),
		DecodesTotal:     total,
		DecodesSucceeded: m.decodesSucceeded.Load(),
		SuccessRate:      m.SuccessRate(),
		AvgDecodeTimeNs:  avg,
		MinDecodeTimeNs:  minTime,
		MaxDecodeTimeNs:  m.decodeTimeMax.Load(),
		ElementsTotal:    m.elementsTotal.Load(),
		SkippedTotal:     m.skippedTotal.Load(),
		CacheHits:        m.cacheHits.Load(),
		CacheMisses:      m.cacheMisses.Load(),
		CacheHitRate:     m.CacheHitRate(),
		ErrorsTotal:      m.ErrorsTotal(),
		ErrorKinds:       m.AllErrorKinds(),
	}
}

// Export returns metrics as a flat map suitable for external systems.
// Error kinds are exported as "errors_<kind>".
func (m *Metrics) Export() map[string]any {
	s := m.Snapshot()
	out := map[string]any{
		"decodes_total":      s.DecodesTotal,
		"decodes_succeeded":  s.DecodesSucceeded,
		"success_rate":       s.SuccessRate,
		"avg_decode_time_ns": s.AvgDecodeTimeNs,
		"min_decode_time_ns": s.MinDecodeTimeNs,
		"max_decode_time_ns": s.MaxDecodeTimeNs,
		"elements_total":     s.ElementsTotal,
		"skipped_total":      s.SkippedTotal,
		"cache_hits":         s.CacheHits,
		"cache_misses":       s.CacheMisses,
		"cache_hit_rate":     s.CacheHitRate,
		"errors_total":       s.ErrorsTotal,
	}
	for _, k := range s.ErrorKinds {
		out["errors_"+k.Kind] = k.Count
	}
	return out
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.decodesTotal.Store(0)
	m.decodesSucceeded.Store(0)
	m.decodeTimeTotal.Store(0)
	m.decodeTimeMin.Store(^uint64(0))
	m.decodeTimeMax.Store(0)
	m.elementsTotal.Store(0)
	m.skippedTotal.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.errorKinds.Range(func(key, _ any) bool {
		m.errorKinds.Delete(key)
		return true
	})
}
