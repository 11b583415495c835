package dispatcher

import (
	"sync"
	"time"

	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/logging"
	"github.com/dshills/keyburst/internal/timer"
)

// Engine is the part of the macro engine the dispatcher drives.
type Engine interface {
	ToggleEnabled() bool
	Enabled() bool
	IsMacroKey(k key.Symbol) bool
	ModeOf(trigger key.Symbol) (macro.Mode, bool)
	ShouldBlockTrigger(k key.Symbol) bool
	SingleShotInFlight(trigger key.Symbol) bool
	Start(trigger key.Symbol) bool
	Stop(trigger key.Symbol)
	MarkHeld(k key.Symbol)
	ClearHeld(k key.Symbol)
	IsHeld(k key.Symbol) bool
}

// Dispatcher turns hook events into suppress/forward decisions and engine
// calls.
type Dispatcher struct {
	engine     Engine
	sched      *timer.Scheduler
	onShutdown func()
	logger     *logging.Logger
	metrics    *Metrics

	mu      sync.Mutex
	config  Config
	chord   *Chord
	blocked key.Set
	// owed holds triggers whose press was suppressed after a rejected
	// start; their release is swallowed too.
	owed key.Set

	shutdownOnce sync.Once
}

// New creates a dispatcher. onShutdown runs at most once, synchronously
// inside the hook callback that completes the force-quit chord.
func New(engine Engine, sched *timer.Scheduler, config Config, onShutdown func(), logger *logging.Logger) *Dispatcher {
	config = config.normalize()
	if onShutdown == nil {
		onShutdown = func() {}
	}
	return &Dispatcher{
		engine:     engine,
		sched:      sched,
		onShutdown: onShutdown,
		logger:     logging.OrNull(logger).WithComponent("dispatcher"),
		metrics:    NewMetrics(),
		config:     config,
		chord:      NewChord(config.ForceQuit...),
		blocked:    key.NewSet(),
		owed:       key.NewSet(),
	}
}

// Config returns the active configuration.
func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.config
	cfg.ForceQuit = append([]key.Symbol(nil), cfg.ForceQuit...)
	return cfg
}

// Metrics returns the dispatcher metrics.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Tracked returns the keys the dispatcher itself needs to see: the toggle
// key and the force-quit chord.
func (d *Dispatcher) Tracked() []key.Symbol {
	d.mu.Lock()
	defer d.mu.Unlock()
	set := key.NewSet(d.config.ForceQuit...)
	if !d.config.ToggleKey.IsNone() {
		set.Add(d.config.ToggleKey)
	}
	return set.Sorted()
}

// Reconfigure replaces the toggle key, force-quit chord and debounce window.
// Blocked triggers and pending unblock timers are dropped.
func (d *Dispatcher) Reconfigure(config Config) {
	config = config.normalize()

	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.blocked {
		d.sched.Cancel(unblockKey(k))
	}
	d.config = config
	d.chord = NewChord(config.ForceQuit...)
	d.blocked = key.NewSet()
	d.owed = key.NewSet()
	d.logger.Info("reconfigured: toggle=%s force-quit=%v", config.ToggleKey, config.ForceQuit)
}

// IsBlocked reports whether trigger is debounced against a new press.
func (d *Dispatcher) IsBlocked(trigger key.Symbol) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocked.Has(trigger)
}

// HandlePress decides a key-down event. It returns true to suppress it.
func (d *Dispatcher) HandlePress(ev key.Event) bool {
	start := time.Now()
	suppress := d.handlePress(ev.Symbol())
	d.metrics.recordCallback(true, suppress, time.Since(start))
	return suppress
}

// HandleRelease decides a key-up event. It returns true to suppress it.
func (d *Dispatcher) HandleRelease(ev key.Event) bool {
	start := time.Now()
	suppress := d.handleRelease(ev.Symbol())
	d.metrics.recordCallback(false, suppress, time.Since(start))
	return suppress
}

func (d *Dispatcher) handlePress(k key.Symbol) bool {
	if k.IsNone() {
		return false
	}

	d.mu.Lock()
	if d.chord.Contains(k) && d.chord.Press(k) {
		d.mu.Unlock()
		d.shutdown()
		return true
	}

	if k == d.config.ToggleKey {
		d.mu.Unlock()
		d.metrics.toggles.Add(1)
		enabled := d.engine.ToggleEnabled()
		d.logger.Debug("toggle key: macros enabled=%v", enabled)
		return true
	}
	defer d.mu.Unlock()

	if !d.engine.Enabled() || !d.engine.IsMacroKey(k) {
		return false
	}

	if d.engine.ShouldBlockTrigger(k) {
		d.metrics.borrowed.Add(1)
		return false
	}

	if d.blocked.Has(k) || d.engine.IsHeld(k) {
		d.metrics.repeats.Add(1)
		return true
	}

	if mode, _ := d.engine.ModeOf(k); mode == macro.ModeSingleShot && d.engine.SingleShotInFlight(k) {
		d.metrics.repeats.Add(1)
		return true
	}

	d.engine.MarkHeld(k)
	d.blocked.Add(k)
	if d.engine.Start(k) {
		d.metrics.starts.Add(1)
		d.owed.Remove(k)
		return true
	}

	// Nothing is playing, so the next auto-repeat press retries.
	d.engine.ClearHeld(k)
	d.blocked.Remove(k)
	d.owed.Add(k)
	d.metrics.rejected.Add(1)
	d.logger.Debug("start %s rejected", k)
	return true
}

func (d *Dispatcher) handleRelease(k key.Symbol) bool {
	if k.IsNone() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.chord.Contains(k) {
		d.chord.Release(k)
	}

	if k == d.config.ToggleKey {
		return true
	}

	if !d.engine.IsMacroKey(k) {
		return false
	}

	if d.engine.ShouldBlockTrigger(k) {
		d.metrics.borrowed.Add(1)
		return false
	}

	// Enabled is not consulted: a trigger pressed before a toggle still
	// needs its held record cleared.
	if !d.engine.IsHeld(k) {
		if d.owed.Has(k) {
			d.owed.Remove(k)
			return true
		}
		// A press swallowed as a repeat still owes its release.
		return d.blocked.Has(k)
	}

	d.engine.ClearHeld(k)
	d.owed.Remove(k)
	mode, _ := d.engine.ModeOf(k)
	switch mode {
	case macro.ModeContinuous:
		d.engine.Stop(k)
		d.sched.Cancel(unblockKey(k))
		d.blocked.Remove(k)
	case macro.ModeSingleShot:
		d.scheduleUnblock(k)
	default:
		d.blocked.Remove(k)
	}
	return true
}

// scheduleUnblock lifts the block on k after the debounce window. Callers
// hold d.mu.
func (d *Dispatcher) scheduleUnblock(k key.Symbol) {
	delay := d.config.SingleShotUnblockDelay
	if delay <= 0 {
		d.blocked.Remove(k)
		return
	}
	err := d.sched.Schedule(unblockKey(k), delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.blocked.Remove(k)
	})
	if err != nil {
		d.blocked.Remove(k)
	}
}

func (d *Dispatcher) shutdown() {
	d.shutdownOnce.Do(func() {
		d.logger.Info("force-quit chord pressed, shutting down")
		d.onShutdown()
	})
}

func unblockKey(k key.Symbol) string {
	return "unblock:" + string(k)
}
