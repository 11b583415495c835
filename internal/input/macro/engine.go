package macro

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyburst/internal/input/inject"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/logging"
	"github.com/dshills/keyburst/internal/timer"
)

const (
	// DefaultPollSlice is the default interruptible sleep slice.
	DefaultPollSlice = 10 * time.Millisecond

	// MaxPollSlice caps the sleep slice and so the worst-case release latency.
	MaxPollSlice = 50 * time.Millisecond

	// DefaultSequenceGap is the default pause between continuous passes.
	DefaultSequenceGap = time.Millisecond

	// DefaultSelfInjectGrace is how long a key stays marked self-injected
	// after the engine releases it.
	DefaultSelfInjectGrace = 30 * time.Millisecond
)

// Errors returned by the engine.
var (
	ErrShutdown       = errors.New("engine shut down")
	ErrQuiesceTimeout = errors.New("timed out waiting for macros to stop")
)

// Resolver maps key symbols to physical codes.
type Resolver interface {
	Resolve(sym key.Symbol) (scancode.Code, bool)
}

// Options tunes engine timing.
type Options struct {
	// PollSlice is the interruptible sleep slice. Values above MaxPollSlice
	// are capped.
	PollSlice time.Duration

	// SequenceGap is the pause between passes of a continuous macro.
	SequenceGap time.Duration

	// SelfInjectGrace is how long a borrowed trigger stays marked after
	// release.
	SelfInjectGrace time.Duration
}

// DefaultOptions returns the default engine timing.
func DefaultOptions() Options {
	return Options{
		PollSlice:       DefaultPollSlice,
		SequenceGap:     DefaultSequenceGap,
		SelfInjectGrace: DefaultSelfInjectGrace,
	}
}

func (o Options) normalize() Options {
	if o.PollSlice <= 0 {
		o.PollSlice = DefaultPollSlice
	}
	if o.PollSlice > MaxPollSlice {
		o.PollSlice = MaxPollSlice
	}
	if o.SequenceGap < 0 {
		o.SequenceGap = 0
	}
	if o.SelfInjectGrace < 0 {
		o.SelfInjectGrace = 0
	}
	return o
}

// Engine replays macros.
type Engine struct {
	resolver Resolver
	injector inject.Injector
	opts     Options
	logger   *logging.Logger
	sched    *timer.Scheduler
	metrics  Metrics

	table atomic.Pointer[Table]
	state *RuntimeState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	listenersMu sync.Mutex
	listeners   []func(enabled bool)
}

// NewEngine creates an engine with an empty table. Macros start enabled.
func NewEngine(resolver Resolver, injector inject.Injector, opts Options, logger *logging.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		resolver: resolver,
		injector: injector,
		opts:     opts.normalize(),
		logger:   logging.OrNull(logger).WithComponent("engine"),
		sched:    timer.New(),
		state:    newRuntimeState(),
		ctx:      ctx,
		cancel:   cancel,
	}
	empty := Table{}
	e.table.Store(&empty)
	return e
}

// Options returns the effective timing options.
func (e *Engine) Options() Options {
	return e.opts
}

// Configure replaces the macro table and resets the completion signal of
// every single-shot trigger to idle. It must not be called while a macro is
// running.
func (e *Engine) Configure(t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Clone()

	signals := make(map[key.Symbol]*Signal)
	for trig, d := range t {
		if d.Mode == ModeSingleShot {
			signals[trig] = NewSignal()
		}
	}

	e.state.mu.Lock()
	if e.state.cancelled {
		e.state.mu.Unlock()
		return ErrShutdown
	}
	e.state.signals = signals
	e.state.mu.Unlock()

	e.table.Store(&t)
	e.logger.Info("configured %d macros (%d enabled)", len(t), len(t.Triggers(false)))
	return nil
}

// Table returns a copy of the current macro table.
func (e *Engine) Table() Table {
	return e.table.Load().Clone()
}

func (e *Engine) lookup(trigger key.Symbol) (Definition, bool) {
	d, ok := (*e.table.Load())[trigger]
	return d, ok
}

// ToggleEnabled flips the global enabled flag and returns the new value.
// Disabling cancels the running continuous macro. Single-shot macros in
// flight see the flag on their next check.
func (e *Engine) ToggleEnabled() bool {
	e.state.mu.Lock()
	e.state.enabled = !e.state.enabled
	enabled := e.state.enabled
	if !enabled {
		e.state.cancelActiveLocked()
	}
	e.state.mu.Unlock()

	e.logger.Info("macros %s", enabledWord(enabled))
	e.notify(enabled)
	return enabled
}

// SetEnabled sets the global enabled flag and returns the previous value.
func (e *Engine) SetEnabled(enabled bool) bool {
	e.state.mu.Lock()
	prev := e.state.enabled
	e.state.enabled = enabled
	if !enabled {
		e.state.cancelActiveLocked()
	}
	e.state.mu.Unlock()

	if prev != enabled {
		e.logger.Info("macros %s", enabledWord(enabled))
		e.notify(enabled)
	}
	return prev
}

// Enabled reports the global enabled flag.
func (e *Engine) Enabled() bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.enabled
}

// OnEnabledChange registers fn to be called after the enabled flag changes.
// fn runs on the goroutine that made the change and must not block.
func (e *Engine) OnEnabledChange(fn func(enabled bool)) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) notify(enabled bool) {
	e.listenersMu.Lock()
	listeners := make([]func(bool), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(enabled)
	}
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// Start begins playback for trigger and returns immediately. It returns
// false without side effects when macros are disabled, the trigger is
// unknown or disabled, a continuous macro is already running (for a
// continuous trigger), or the trigger's previous single-shot run is still
// in flight.
func (e *Engine) Start(trigger key.Symbol) bool {
	def, ok := e.lookup(trigger)
	if !ok || !def.Enabled() {
		e.metrics.rejections.Add(1)
		return false
	}

	id := uuid.New()
	e.state.mu.Lock()
	if !e.state.enabled || e.state.cancelled {
		e.state.mu.Unlock()
		e.metrics.rejections.Add(1)
		return false
	}

	var run func()
	switch def.Mode {
	case ModeContinuous:
		if !e.state.active.IsNone() {
			e.state.mu.Unlock()
			e.metrics.rejections.Add(1)
			return false
		}
		ctx, cancel := context.WithCancel(e.ctx)
		e.state.active = trigger
		e.state.activeID = id
		e.state.activeCancel = cancel
		run = func() { e.runContinuous(ctx, id, def) }

	case ModeSingleShot:
		sig := e.state.signals[trigger]
		if sig == nil || !sig.TryAcquire() {
			e.state.mu.Unlock()
			e.metrics.rejections.Add(1)
			return false
		}
		run = func() { e.runSingleShot(e.ctx, id, def, sig) }
	}
	e.wg.Add(1)
	e.state.mu.Unlock()

	e.metrics.starts.Add(1)
	go run()
	return true
}

// Stop cancels the continuous macro bound to trigger. It does nothing for
// any other trigger; single-shot macros are never stopped from outside.
func (e *Engine) Stop(trigger key.Symbol) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.active == trigger && !trigger.IsNone() {
		e.state.cancelActiveLocked()
	}
}

// IsMacroKey reports whether k is the trigger of any definition, including
// disabled-mode ones. Start rejects the latter.
func (e *Engine) IsMacroKey(k key.Symbol) bool {
	_, ok := e.lookup(k)
	return ok
}

// ModeOf returns the mode of the definition for trigger.
func (e *Engine) ModeOf(trigger key.Symbol) (Mode, bool) {
	d, ok := e.lookup(trigger)
	return d.Mode, ok
}

// ShouldBlockTrigger reports whether the engine is currently driving k as
// part of another macro's actions.
func (e *Engine) ShouldBlockTrigger(k key.Symbol) bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.injected[k] > 0
}

// SingleShotInFlight reports whether trigger's single-shot run is in flight.
func (e *Engine) SingleShotInFlight(trigger key.Symbol) bool {
	e.state.mu.Lock()
	sig := e.state.signals[trigger]
	e.state.mu.Unlock()
	return sig != nil && !sig.Idle()
}

// SingleShotDone returns a channel closed once trigger's single-shot run is
// idle. It returns nil for triggers that are not single-shot.
func (e *Engine) SingleShotDone(trigger key.Symbol) <-chan struct{} {
	e.state.mu.Lock()
	sig := e.state.signals[trigger]
	e.state.mu.Unlock()
	if sig == nil {
		return nil
	}
	return sig.Done()
}

// ActiveContinuous returns the running continuous trigger, or key.None.
func (e *Engine) ActiveContinuous() key.Symbol {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.active
}

// MarkHeld records that the user is physically holding k.
func (e *Engine) MarkHeld(k key.Symbol) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	e.state.held.Add(k)
}

// ClearHeld records that the user released k.
func (e *Engine) ClearHeld(k key.Symbol) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	e.state.held.Remove(k)
}

// IsHeld reports whether the user is physically holding k.
func (e *Engine) IsHeld(k key.Symbol) bool {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	return e.state.held.Has(k)
}

// Snapshot returns a point-in-time view of the engine.
func (e *Engine) Snapshot() State {
	st := e.state.snapshot()
	st.Triggers = len(e.table.Load().Triggers(false))
	return st
}

// Metrics returns the engine counters.
func (e *Engine) Metrics() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Wait blocks until every worker has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Quiesce disables macros, cancels running ones and waits up to timeout
// for every worker to return. It returns the enabled flag as it was before
// the call so the caller can restore it.
func (e *Engine) Quiesce(timeout time.Duration) (bool, error) {
	prev := e.SetEnabled(false)

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return prev, nil
	case <-time.After(timeout):
		return prev, fmt.Errorf("%w after %v", ErrQuiesceTimeout, timeout)
	}
}

// Shutdown sets the global cancellation state, wakes every worker and
// cancels pending grace timers. It does not wait for workers; use Wait.
// Shutdown is idempotent.
func (e *Engine) Shutdown() {
	e.state.mu.Lock()
	if e.state.cancelled {
		e.state.mu.Unlock()
		return
	}
	e.state.cancelled = true
	e.state.cancelActiveLocked()
	e.state.mu.Unlock()

	e.cancel()
	e.sched.Stop()

	e.state.mu.Lock()
	clear(e.state.injected)
	e.state.mu.Unlock()

	e.logger.Info("engine shut down")
}
