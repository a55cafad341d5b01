package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterFailure
	MetricRegisterDuplicate
	MetricAssetUploadFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts refresh calls rejected because the
	// presented token was not the stored one.
	MetricRefreshReuseDetected
	MetricLogout
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricPasswordChangeReuseRejected
	MetricProfileUpdate
	MetricAccessVerifyFailure
	MetricStoreUnavailable
	// MetricRefreshLatency is the only histogram.
	MetricRefreshLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free engine counters. A nil or disabled Metrics ignores
// every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates metrics per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricRefreshLatency is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRefreshLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. Histograms are included only when latency
// recording is enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRefreshLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRefreshLatency].buckets[i])
		}
		s.Histograms[MetricRefreshLatency] = buckets
	}
	return s
}

// HistogramBounds are the inclusive upper bounds of the first seven buckets;
// the eighth is +Inf.
var HistogramBounds = [histBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

func bucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
