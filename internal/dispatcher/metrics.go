package dispatcher

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const latencySamples = 1024

// Metrics tracks hook callback decisions and latency.
type Metrics struct {
	presses    atomic.Uint64
	releases   atomic.Uint64
	suppressed atomic.Uint64
	forwarded  atomic.Uint64
	toggles    atomic.Uint64
	starts     atomic.Uint64
	rejected   atomic.Uint64
	repeats    atomic.Uint64
	borrowed   atomic.Uint64

	// Latency tracking
	mu         sync.Mutex
	latencies  []time.Duration
	latencyIdx int
	peak       atomic.Int64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		latencies: make([]time.Duration, latencySamples),
		startTime: time.Now(),
	}
}

// recordCallback records one hook callback decision and its duration.
func (m *Metrics) recordCallback(press, suppress bool, latency time.Duration) {
	if press {
		m.presses.Add(1)
	} else {
		m.releases.Add(1)
	}
	if suppress {
		m.suppressed.Add(1)
	} else {
		m.forwarded.Add(1)
	}

	ns := latency.Nanoseconds()
	for {
		current := m.peak.Load()
		if ns <= current {
			break
		}
		if m.peak.CompareAndSwap(current, ns) {
			break
		}
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % len(m.latencies)
	m.mu.Unlock()
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	Presses    uint64
	Releases   uint64
	Suppressed uint64
	Forwarded  uint64
	Toggles    uint64
	Starts     uint64
	Rejected   uint64
	Repeats    uint64
	Borrowed   uint64

	AvgLatency  time.Duration
	MaxLatency  time.Duration
	P99Latency  time.Duration
	PeakLatency time.Duration

	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	uptime := time.Since(m.startTime)
	m.mu.Unlock()

	snap := MetricsSnapshot{
		Presses:     m.presses.Load(),
		Releases:    m.releases.Load(),
		Suppressed:  m.suppressed.Load(),
		Forwarded:   m.forwarded.Load(),
		Toggles:     m.toggles.Load(),
		Starts:      m.starts.Load(),
		Rejected:    m.rejected.Load(),
		Repeats:     m.repeats.Load(),
		Borrowed:    m.borrowed.Load(),
		PeakLatency: time.Duration(m.peak.Load()),
		Uptime:      uptime,
	}
	snap.AvgLatency, snap.MaxLatency, snap.P99Latency = latencyStats(latencies)
	return snap
}

// latencyStats computes average, max and p99 over the non-zero samples.
func latencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
		if l > maxLat {
			maxLat = l
		}
	}
	avg = sum / time.Duration(len(valid))

	sort.Slice(valid, func(i, j int) bool { return valid[i] < valid[j] })
	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p99 = valid[idx]
	return avg, maxLat, p99
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.presses.Store(0)
	m.releases.Store(0)
	m.suppressed.Store(0)
	m.forwarded.Store(0)
	m.toggles.Store(0)
	m.starts.Store(0)
	m.rejected.Store(0)
	m.repeats.Store(0)
	m.borrowed.Store(0)
	m.peak.Store(0)

	m.mu.Lock()
	m.latencies = make([]time.Duration, latencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// HealthStatus reports whether hook callbacks stay inside their budget.
type HealthStatus struct {
	Healthy     bool
	PeakLatency time.Duration
	P99Latency  time.Duration
	Budget      time.Duration
	Message     string
}

// HealthCheck compares callback latency against budget. Only the p99 is
// judged; a single slow callback shows up in PeakLatency.
func (m *Metrics) HealthCheck(budget time.Duration) HealthStatus {
	snap := m.Snapshot()
	status := HealthStatus{
		Healthy:     true,
		PeakLatency: snap.PeakLatency,
		P99Latency:  snap.P99Latency,
		Budget:      budget,
		Message:     "healthy",
	}
	if snap.P99Latency > budget {
		status.Healthy = false
		status.Message = "hook callback latency over budget"
	}
	return status
}
