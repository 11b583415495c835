package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks application-level activity. Per-key counters live in the
// engine and dispatcher metrics.
type Metrics struct {
	reloads        atomic.Uint64
	reloadFailures atomic.Uint64
	lastReloadNs   atomic.Int64
	toggles        atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) recordReload(ok bool) {
	if !ok {
		m.reloadFailures.Add(1)
		return
	}
	m.reloads.Add(1)
	m.lastReloadNs.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of the application metrics.
type MetricsSnapshot struct {
	Reloads        uint64
	ReloadFailures uint64
	// Toggles counts changes of the enabled flag from any source.
	Toggles uint64

	// LastReload is the time of the last applied reload, zero if none.
	LastReload time.Time

	Uptime time.Duration
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Reloads:        m.reloads.Load(),
		ReloadFailures: m.reloadFailures.Load(),
		Toggles:        m.toggles.Load(),
		Uptime:         time.Since(m.startTime),
	}
	if ns := m.lastReloadNs.Load(); ns != 0 {
		snap.LastReload = time.Unix(0, ns)
	}
	return snap
}
