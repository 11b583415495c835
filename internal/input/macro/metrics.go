package macro

import "sync/atomic"

// Metrics counts engine activity.
type Metrics struct {
	starts         atomic.Uint64
	rejections     atomic.Uint64
	passes         atomic.Uint64
	actions        atomic.Uint64
	unknownKeys    atomic.Uint64
	injectFailures atomic.Uint64
	aborted        atomic.Uint64
	panics         atomic.Uint64
}

// MetricsSnapshot holds a point-in-time view of the engine counters.
type MetricsSnapshot struct {
	Starts         uint64
	Rejections     uint64
	Passes         uint64
	Actions        uint64
	UnknownKeys    uint64
	InjectFailures uint64
	Aborted        uint64
	Panics         uint64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Starts:         m.starts.Load(),
		Rejections:     m.rejections.Load(),
		Passes:         m.passes.Load(),
		Actions:        m.actions.Load(),
		UnknownKeys:    m.unknownKeys.Load(),
		InjectFailures: m.injectFailures.Load(),
		Aborted:        m.aborted.Load(),
		Panics:         m.panics.Load(),
	}
}

// Reset clears all counters.
func (m *Metrics) Reset() {
	m.starts.Store(0)
	m.rejections.Store(0)
	m.passes.Store(0)
	m.actions.Store(0)
	m.unknownKeys.Store(0)
	m.injectFailures.Store(0)
	m.aborted.Store(0)
	m.panics.Store(0)
}
